package cashsession

import (
	"errors"
	"fmt"
	"log"
	"time"

	"market-backend/internal/audit"
	"market-backend/internal/auth"
	"market-backend/internal/database"
	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OpenSessionRequest struct {
	RegisterID   uint    `json:"register_id"`
	OpeningFloat float64 `json:"opening_float"`
	Notes        string  `json:"notes"`
}

type RecordMovementRequest struct {
	Kind             models.MovementKind `json:"kind"` // "cash_in" | "cash_out" | "transfer"
	Amount           float64             `json:"amount"`
	Reason           string              `json:"reason"`
	TransferTargetID *uint               `json:"transfer_target_id"`
}

type RecordSaleRequest struct {
	Amount float64 `json:"amount"`
}

type CloseSessionRequest struct {
	ActualClosingAmount float64 `json:"actual_closing_amount"`
	Notes               string  `json:"notes"`
}

type SessionResponse struct {
	ID         uint                 `json:"id"`
	BranchID   uint                 `json:"branch_id"`
	RegisterID uint                 `json:"register_id"`
	CashierID  uint                 `json:"cashier_id"`
	Status     models.SessionStatus `json:"status"`
	OpenedAt   string               `json:"opened_at"`
	ClosedAt   *string              `json:"closed_at"`

	OpeningFloat float64 `json:"opening_float"`
	SalesTotal   float64 `json:"sales_total"`
	CashInTotal  float64 `json:"cash_in_total"`
	CashOutTotal float64 `json:"cash_out_total"`

	ExpectedClosingAmount *float64                  `json:"expected_closing_amount"`
	ActualClosingAmount   *float64                  `json:"actual_closing_amount"`
	DiscrepancyAmount     *float64                  `json:"discrepancy_amount"`
	DiscrepancyStatus     *models.DiscrepancyStatus `json:"discrepancy_status"`

	Notes string `json:"notes"`
}

type MovementResponse struct {
	ID               uint                `json:"id"`
	SessionID        uint                `json:"session_id"`
	Kind             models.MovementKind `json:"kind"`
	Amount           float64             `json:"amount"`
	Reason           string              `json:"reason"`
	ActorID          uint                `json:"actor_id"`
	TransferTargetID *uint               `json:"transfer_target_id"`
	CreatedAt        string              `json:"created_at"`
}

func toSessionResponse(s *models.CashSession) SessionResponse {
	var closedAt *string
	if s.ClosedAt != nil {
		formatted := s.ClosedAt.Format("2006-01-02 15:04:05")
		closedAt = &formatted
	}

	return SessionResponse{
		ID:                    s.ID,
		BranchID:              s.BranchID,
		RegisterID:            s.RegisterID,
		CashierID:             s.CashierID,
		Status:                s.Status,
		OpenedAt:              s.OpenedAt.Format("2006-01-02 15:04:05"),
		ClosedAt:              closedAt,
		OpeningFloat:          s.OpeningFloat,
		SalesTotal:            s.SalesTotal,
		CashInTotal:           s.CashInTotal,
		CashOutTotal:          s.CashOutTotal,
		ExpectedClosingAmount: s.ExpectedClosingAmount,
		ActualClosingAmount:   s.ActualClosingAmount,
		DiscrepancyAmount:     s.DiscrepancyAmount,
		DiscrepancyStatus:     s.DiscrepancyStatus,
		Notes:                 s.Notes,
	}
}

func toMovementResponse(m *models.CashMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Kind:             m.Kind,
		Amount:           m.Amount,
		Reason:           m.Reason,
		ActorID:          m.ActorID,
		TransferTargetID: m.TransferTargetID,
		CreatedAt:        m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// httpError: çekirdek hatalarını HTTP cevabına çevirir.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidState):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Kayıt işlemi başarısız")
	}
}

// Yardımcı: context'ten kullanıcı kimliği ve adı
func currentUser(c *fiber.Ctx) (uint, string, error) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	name, _ := c.Locals(auth.CtxUserNameKey).(string)
	return userID, name, nil
}

// Yardımcı: şube yetki kontrolü. super_admin her şubeye erişir;
// diğer roller sadece JWT'deki kendi şubesine.
func checkBranchAccess(c *fiber.Ctx, branchID uint) error {
	role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
	if !ok {
		return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	if role == models.RoleSuperAdmin {
		return nil
	}

	bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
	if !ok || bPtr == nil {
		return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
	}
	if *bPtr != branchID {
		return fiber.NewError(fiber.StatusForbidden, "Bu şubenin kayıtlarına erişim yetkiniz yok")
	}
	return nil
}

func parseSessionID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz oturum ID")
	}
	return id, nil
}

// -------------------------------------------------
// POST /api/cash-sessions
// -------------------------------------------------
func OpenSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, err := currentUser(c)
		if err != nil {
			return err
		}

		// Kasa kontrolü: şube kasadan çözülür
		var register models.Register
		if err := database.DB.First(&register, "id = ?", body.RegisterID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kasa bulunamadı")
		}
		if !register.Active {
			return fiber.NewError(fiber.StatusConflict, "Kasa pasif durumda")
		}
		if err := checkBranchAccess(c, register.BranchID); err != nil {
			return err
		}

		session, err := svc.Open(c.Context(), OpenParams{
			BranchID:     register.BranchID,
			RegisterID:   register.ID,
			CashierID:    userID,
			OpeningFloat: body.OpeningFloat,
			Notes:        body.Notes,
		})
		if err != nil {
			return httpError(err)
		}

		writeSessionAudit(session, userID, userName, models.AuditActionCreate,
			fmt.Sprintf("Kasa oturumu açıldı: %s - açılış %.2f TL", register.Name, session.OpeningFloat), nil)

		return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
	}
}

// -------------------------------------------------
// GET /api/cash-sessions?status=open&register_id=1&from=2025-12-01&to=2025-12-31
// -------------------------------------------------
func ListSessionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		var filter SessionFilter

		if role == models.RoleSuperAdmin {
			if bidStr := c.Query("branch_id"); bidStr != "" {
				var bid uint
				if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
					return fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
				}
				filter.BranchID = &bid
			}
		} else {
			bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || bPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			filter.BranchID = bPtr
		}

		if stStr := c.Query("status"); stStr != "" {
			st := models.SessionStatus(stStr)
			if st != models.SessionOpen && st != models.SessionClosed {
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz (open|closed)")
			}
			filter.Status = &st
		}

		if ridStr := c.Query("register_id"); ridStr != "" {
			var rid uint
			if _, err := fmt.Sscan(ridStr, &rid); err != nil || rid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "register_id geçersiz")
			}
			filter.RegisterID = &rid
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			filter.From = &from
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			end := to.AddDate(0, 0, 1).Add(-time.Second) // günün sonu
			filter.To = &end
		}

		sessions, err := svc.List(c.Context(), filter)
		if err != nil {
			return httpError(err)
		}

		resp := make([]SessionResponse, 0, len(sessions))
		for i := range sessions {
			resp = append(resp, toSessionResponse(&sessions[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/cash-sessions/:id
// -------------------------------------------------
func GetSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}

		session, err := svc.Get(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		if err := checkBranchAccess(c, session.BranchID); err != nil {
			return err
		}

		return c.JSON(toSessionResponse(session))
	}
}

// -------------------------------------------------
// GET /api/cash-sessions/:id/movements
// -------------------------------------------------
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}

		session, err := svc.Get(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		if err := checkBranchAccess(c, session.BranchID); err != nil {
			return err
		}

		movs, err := svc.Movements(c.Context(), id)
		if err != nil {
			return httpError(err)
		}

		resp := make([]MovementResponse, 0, len(movs))
		for i := range movs {
			resp = append(resp, toMovementResponse(&movs[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// POST /api/cash-sessions/:id/movements
// -------------------------------------------------
func RecordMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}

		var body RecordMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, err := currentUser(c)
		if err != nil {
			return err
		}

		session, err := svc.Get(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		if err := checkBranchAccess(c, session.BranchID); err != nil {
			return err
		}

		mov, err := svc.RecordMovement(c.Context(), MovementParams{
			SessionID:        id,
			Kind:             body.Kind,
			Amount:           body.Amount,
			Reason:           body.Reason,
			ActorID:          userID,
			TransferTargetID: body.TransferTargetID,
		})
		if err != nil {
			return httpError(err)
		}

		writeMovementAudit(session, mov, userID, userName)

		return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
	}
}

// -------------------------------------------------
// POST /api/cash-sessions/:id/sales
// -------------------------------------------------
func RecordSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}

		var body RecordSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, err := currentUser(c)
		if err != nil {
			return err
		}

		session, err := svc.Get(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		if err := checkBranchAccess(c, session.BranchID); err != nil {
			return err
		}

		updated, err := svc.RecordSale(c.Context(), id, body.Amount)
		if err != nil {
			return httpError(err)
		}

		writeSessionAudit(updated, userID, userName, models.AuditActionUpdate,
			fmt.Sprintf("Satış kaydedildi: %.2f TL", body.Amount), sessionAuditData(session))

		return c.JSON(toSessionResponse(updated))
	}
}

// -------------------------------------------------
// POST /api/cash-sessions/:id/close
// -------------------------------------------------
func CloseSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}

		var body CloseSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, err := currentUser(c)
		if err != nil {
			return err
		}

		before, err := svc.Get(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		if err := checkBranchAccess(c, before.BranchID); err != nil {
			return err
		}

		session, err := svc.Close(c.Context(), id, body.ActualClosingAmount, body.Notes)
		if err != nil {
			return httpError(err)
		}

		writeSessionAudit(session, userID, userName, models.AuditActionClose,
			fmt.Sprintf("Kasa oturumu kapatıldı: beklenen %.2f TL, sayılan %.2f TL, fark %.2f TL (%s)",
				*session.ExpectedClosingAmount, *session.ActualClosingAmount,
				*session.DiscrepancyAmount, *session.DiscrepancyStatus),
			sessionAuditData(before))

		return c.JSON(toSessionResponse(session))
	}
}

// -------------------------------------------------
// Audit yardımcıları
// -------------------------------------------------

func sessionAuditData(s *models.CashSession) map[string]interface{} {
	return map[string]interface{}{
		"id":             s.ID,
		"branch_id":      s.BranchID,
		"register_id":    s.RegisterID,
		"cashier_id":     s.CashierID,
		"status":         s.Status,
		"opening_float":  s.OpeningFloat,
		"sales_total":    s.SalesTotal,
		"cash_in_total":  s.CashInTotal,
		"cash_out_total": s.CashOutTotal,
		"expected":       s.ExpectedClosingAmount,
		"actual":         s.ActualClosingAmount,
		"discrepancy":    s.DiscrepancyAmount,
	}
}

func writeSessionAudit(s *models.CashSession, userID uint, userName string, action models.AuditAction, description string, before map[string]interface{}) {
	branchID := s.BranchID
	if logErr := audit.WriteLog(audit.LogOptions{
		BranchID:    &branchID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "cash_session",
		EntityID:    s.ID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       sessionAuditData(s),
	}); logErr != nil {
		// Log hatası kritik değil, sadece log'la
		log.Println("Audit log yazılamadı:", logErr)
	}
}

func writeMovementAudit(s *models.CashSession, m *models.CashMovement, userID uint, userName string) {
	branchID := s.BranchID
	afterData := map[string]interface{}{
		"id":                 m.ID,
		"session_id":         m.SessionID,
		"kind":               m.Kind,
		"amount":             m.Amount,
		"reason":             m.Reason,
		"actor_id":           m.ActorID,
		"transfer_target_id": m.TransferTargetID,
	}
	if logErr := audit.WriteLog(audit.LogOptions{
		BranchID:    &branchID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "cash_movement",
		EntityID:    m.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Para hareketi: %s - %.2f TL", m.Kind, m.Amount),
		Before:      nil,
		After:       afterData,
	}); logErr != nil {
		log.Println("Audit log yazılamadı:", logErr)
	}
}
