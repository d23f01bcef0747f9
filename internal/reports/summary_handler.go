package reports

import (
	"fmt"
	"time"

	"market-backend/internal/auth"
	"market-backend/internal/database"
	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// resolveBranchIDFromQueryOrRole: branch_id'yi query'den veya role'den çöz
func resolveBranchIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleSuperAdmin {
		bVal := c.Locals(auth.CtxBranchIDKey)
		bPtr, ok := bVal.(*uint)
		if !ok || bPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *bPtr, nil
	}

	bidStr := c.Query("branch_id")
	if bidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	var bid uint
	if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
	}
	return bid, nil
}

type RegisterSummary struct {
	RegisterID       uint    `json:"register_id"`
	RegisterName     string  `json:"register_name"`
	SessionCount     int     `json:"session_count"`
	OpenCount        int     `json:"open_count"`
	SalesTotal       float64 `json:"sales_total"`
	CashInTotal      float64 `json:"cash_in_total"`
	CashOutTotal     float64 `json:"cash_out_total"`
	DiscrepancyTotal float64 `json:"discrepancy_total"` // sadece kapalı oturumlar
}

type DailySummaryResponse struct {
	BranchID         uint              `json:"branch_id"`
	Date             string            `json:"date"`
	Registers        []RegisterSummary `json:"registers"`
	SalesTotal       float64           `json:"sales_total"`
	CashInTotal      float64           `json:"cash_in_total"`
	CashOutTotal     float64           `json:"cash_out_total"`
	DiscrepancyTotal float64           `json:"discrepancy_total"`
}

// -------------------------------------------------
// GET /api/reports/cash-sessions/daily?date=2025-12-09&branch_id=1
// O gün açılan oturumların kasa bazında özeti.
// -------------------------------------------------
func DailySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dateStr := c.Query("date")
		var day time.Time
		if dateStr == "" {
			now := time.Now()
			day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			day = d
		}
		dayEnd := day.AddDate(0, 0, 1)

		var sessions []models.CashSession
		if err := database.DB.Preload("Register").
			Where("branch_id = ? AND opened_at >= ? AND opened_at < ?", branchID, day, dayEnd).
			Order("register_id asc, id asc").
			Find(&sessions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		resp := DailySummaryResponse{
			BranchID:  branchID,
			Date:      day.Format("2006-01-02"),
			Registers: make([]RegisterSummary, 0),
		}

		byRegister := make(map[uint]*RegisterSummary)
		var registerOrder []uint
		for i := range sessions {
			s := &sessions[i]
			rs, ok := byRegister[s.RegisterID]
			if !ok {
				rs = &RegisterSummary{
					RegisterID:   s.RegisterID,
					RegisterName: s.Register.Name,
				}
				byRegister[s.RegisterID] = rs
				registerOrder = append(registerOrder, s.RegisterID)
			}

			rs.SessionCount++
			if s.Status == models.SessionOpen {
				rs.OpenCount++
			}
			rs.SalesTotal += s.SalesTotal
			rs.CashInTotal += s.CashInTotal
			rs.CashOutTotal += s.CashOutTotal
			if s.DiscrepancyAmount != nil {
				rs.DiscrepancyTotal += *s.DiscrepancyAmount
			}
		}

		for _, rid := range registerOrder {
			resp.Registers = append(resp.Registers, *byRegister[rid])
		}

		for _, rs := range resp.Registers {
			resp.SalesTotal += rs.SalesTotal
			resp.CashInTotal += rs.CashInTotal
			resp.CashOutTotal += rs.CashOutTotal
			resp.DiscrepancyTotal += rs.DiscrepancyTotal
		}

		return c.JSON(resp)
	}
}

type DailyTotals struct {
	Date             string  `json:"date"`
	SessionCount     int     `json:"session_count"`
	SalesTotal       float64 `json:"sales_total"`
	CashInTotal      float64 `json:"cash_in_total"`
	CashOutTotal     float64 `json:"cash_out_total"`
	DiscrepancyTotal float64 `json:"discrepancy_total"`
}

type MonthlySummaryResponse struct {
	BranchID         uint          `json:"branch_id"`
	Year             int           `json:"year"`
	Month            int           `json:"month"`
	Days             []DailyTotals `json:"days"`
	SalesTotal       float64       `json:"sales_total"`
	DiscrepancyTotal float64       `json:"discrepancy_total"`
}

// -------------------------------------------------
// GET /api/reports/cash-sessions/monthly?year=2025&month=12&branch_id=1
// -------------------------------------------------
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		yearStr := c.Query("year")
		monthStr := c.Query("month")
		if yearStr == "" || monthStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		var year, month int
		if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
		}

		loc := time.Now().Location()
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)

		var sessions []models.CashSession
		if err := database.DB.
			Where("branch_id = ? AND opened_at >= ? AND opened_at < ?", branchID, start, end).
			Order("opened_at asc, id asc").
			Find(&sessions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		// Ayın her günü için satır oluştur (veri yoksa sıfırlarla)
		dailyMap := make(map[string]*DailyTotals)
		var order []string
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			dailyMap[key] = &DailyTotals{Date: key}
			order = append(order, key)
		}

		for i := range sessions {
			s := &sessions[i]
			key := s.OpenedAt.Format("2006-01-02")
			dt, ok := dailyMap[key]
			if !ok {
				continue
			}
			dt.SessionCount++
			dt.SalesTotal += s.SalesTotal
			dt.CashInTotal += s.CashInTotal
			dt.CashOutTotal += s.CashOutTotal
			if s.DiscrepancyAmount != nil {
				dt.DiscrepancyTotal += *s.DiscrepancyAmount
			}
		}

		resp := MonthlySummaryResponse{
			BranchID: branchID,
			Year:     year,
			Month:    month,
			Days:     make([]DailyTotals, 0, len(order)),
		}
		for _, key := range order {
			dt := dailyMap[key]
			resp.Days = append(resp.Days, *dt)
			resp.SalesTotal += dt.SalesTotal
			resp.DiscrepancyTotal += dt.DiscrepancyTotal
		}

		return c.JSON(resp)
	}
}
