package reports

import (
	"time"

	"market-backend/internal/database"
	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type DiscrepancyItem struct {
	SessionID         uint                     `json:"session_id"`
	RegisterID        uint                     `json:"register_id"`
	RegisterName      string                   `json:"register_name"`
	CashierID         uint                     `json:"cashier_id"`
	CashierName       string                   `json:"cashier_name"`
	ClosedAt          string                   `json:"closed_at"`
	ExpectedAmount    float64                  `json:"expected_amount"`
	ActualAmount      float64                  `json:"actual_amount"`
	DiscrepancyAmount float64                  `json:"discrepancy_amount"`
	DiscrepancyStatus models.DiscrepancyStatus `json:"discrepancy_status"`
}

type DiscrepancyReportResponse struct {
	BranchID      uint              `json:"branch_id"`
	From          string            `json:"from"`
	To            string            `json:"to"`
	Items         []DiscrepancyItem `json:"items"`
	TotalShortage float64           `json:"total_shortage"` // eksiklerin toplamı (negatif)
	TotalSurplus  float64           `json:"total_surplus"`  // fazlaların toplamı (pozitif)
	CountByStatus map[string]int    `json:"count_by_status"`
}

// -------------------------------------------------
// GET /api/reports/discrepancies?from=2025-12-01&to=2025-12-31&status=critical
// Kapanmış oturumların sayım farkı dökümü. Fark denetimi için
// kapanış alanları olduğu gibi raporlanır.
// -------------------------------------------------
func DiscrepancyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "from ve to tarihleri zorunlu (YYYY-MM-DD)")
		}

		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
		}
		toEnd := to.AddDate(0, 0, 1)

		dbq := database.DB.Preload("Register").Preload("Cashier").
			Where("branch_id = ? AND status = ? AND closed_at >= ? AND closed_at < ?",
				branchID, models.SessionClosed, from, toEnd)

		if stStr := c.Query("status"); stStr != "" {
			st := models.DiscrepancyStatus(stStr)
			switch st {
			case models.DiscrepancyNone, models.DiscrepancyMinor,
				models.DiscrepancySignificant, models.DiscrepancyCritical:
				dbq = dbq.Where("discrepancy_status = ?", st)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz (none|minor|significant|critical)")
			}
		}

		var sessions []models.CashSession
		if err := dbq.Order("closed_at asc, id asc").Find(&sessions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hesaplanamadı")
		}

		resp := DiscrepancyReportResponse{
			BranchID:      branchID,
			From:          from.Format("2006-01-02"),
			To:            to.Format("2006-01-02"),
			Items:         make([]DiscrepancyItem, 0, len(sessions)),
			CountByStatus: make(map[string]int),
		}

		for i := range sessions {
			s := &sessions[i]
			// Kapalı oturumda kapanış alanları her zaman dolu olmalı
			if s.DiscrepancyAmount == nil || s.DiscrepancyStatus == nil ||
				s.ExpectedClosingAmount == nil || s.ActualClosingAmount == nil || s.ClosedAt == nil {
				continue
			}

			item := DiscrepancyItem{
				SessionID:         s.ID,
				RegisterID:        s.RegisterID,
				RegisterName:      s.Register.Name,
				CashierID:         s.CashierID,
				CashierName:       s.Cashier.Name,
				ClosedAt:          s.ClosedAt.Format("2006-01-02 15:04:05"),
				ExpectedAmount:    *s.ExpectedClosingAmount,
				ActualAmount:      *s.ActualClosingAmount,
				DiscrepancyAmount: *s.DiscrepancyAmount,
				DiscrepancyStatus: *s.DiscrepancyStatus,
			}
			resp.Items = append(resp.Items, item)
			resp.CountByStatus[string(item.DiscrepancyStatus)]++

			if item.DiscrepancyAmount < 0 {
				resp.TotalShortage += item.DiscrepancyAmount
			} else {
				resp.TotalSurplus += item.DiscrepancyAmount
			}
		}

		return c.JSON(resp)
	}
}
