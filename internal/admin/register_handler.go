package admin

import (
	"fmt"
	"strings"

	"market-backend/internal/database"
	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RegisterResponse struct {
	ID        uint   `json:"id"`
	BranchID  uint   `json:"branch_id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type CreateRegisterRequest struct {
	BranchID uint   `json:"branch_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type UpdateRegisterRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
}

func toRegisterResponse(r *models.Register) RegisterResponse {
	return RegisterResponse{
		ID:        r.ID,
		BranchID:  r.BranchID,
		Name:      r.Name,
		Location:  r.Location,
		Active:    r.Active,
		CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// KASA (YAZARKASA) CRUD
// ----------------------------------------

func CreateRegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kasa adı boş olamaz")
		}

		// Şube kontrolü
		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", body.BranchID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		register := models.Register{
			BranchID: branch.ID,
			Name:     body.Name,
			Location: strings.TrimSpace(body.Location),
			Active:   true,
		}

		if err := database.DB.Create(&register).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa oluşturulamadı")
		}

		writeAdminAudit(c, &register.BranchID, "register", register.ID, models.AuditActionCreate,
			fmt.Sprintf("Kasa eklendi: %s (%s)", register.Name, branch.Name), nil, toRegisterResponse(&register))

		return c.Status(fiber.StatusCreated).JSON(toRegisterResponse(&register))
	}
}

// GET /api/admin/registers?branch_id=1
func ListRegistersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Register{})

		if bidStr := c.Query("branch_id"); bidStr != "" {
			dbq = dbq.Where("branch_id = ?", bidStr)
		}

		var registers []models.Register
		if err := dbq.Order("branch_id asc, name asc").Find(&registers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasalar listelenemedi")
		}

		res := make([]RegisterResponse, 0, len(registers))
		for i := range registers {
			res = append(res, toRegisterResponse(&registers[i]))
		}

		return c.JSON(res)
	}
}

func UpdateRegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var register models.Register
		if err := database.DB.First(&register, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kasa bulunamadı")
		}

		var body UpdateRegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		before := toRegisterResponse(&register)

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kasa adı boş olamaz")
			}
			register.Name = name
		}

		if body.Location != nil {
			register.Location = strings.TrimSpace(*body.Location)
		}

		if body.Active != nil {
			// Açık oturumu olan kasa pasife alınamaz
			if !*body.Active {
				var openCount int64
				database.DB.Model(&models.CashSession{}).
					Where("register_id = ? AND status = ?", register.ID, models.SessionOpen).
					Count(&openCount)
				if openCount > 0 {
					return fiber.NewError(fiber.StatusConflict, "Açık oturumu olan kasa pasife alınamaz")
				}
			}
			register.Active = *body.Active
		}

		if err := database.DB.Save(&register).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa güncellenemedi")
		}

		writeAdminAudit(c, &register.BranchID, "register", register.ID, models.AuditActionUpdate,
			fmt.Sprintf("Kasa güncellendi: %s", register.Name), before, toRegisterResponse(&register))

		return c.JSON(toRegisterResponse(&register))
	}
}

func DeleteRegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var register models.Register
		if err := database.DB.First(&register, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kasa bulunamadı")
		}

		// Oturum geçmişi olan kasa silinmez, pasife alınır
		var sessionCount int64
		database.DB.Model(&models.CashSession{}).Where("register_id = ?", register.ID).Count(&sessionCount)
		if sessionCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Oturum geçmişi olan kasa silinemez, pasife alın")
		}

		if err := database.DB.Delete(&register).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa silinemedi")
		}

		writeAdminAudit(c, &register.BranchID, "register", register.ID, models.AuditActionDelete,
			fmt.Sprintf("Kasa silindi: %s", register.Name), toRegisterResponse(&register), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
