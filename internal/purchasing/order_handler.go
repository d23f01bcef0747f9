package purchasing

import (
	"fmt"
	"log"
	"strings"
	"time"

	"market-backend/internal/audit"
	"market-backend/internal/database"
	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OrderItemRequest struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type CreateOrderRequest struct {
	SupplierID uint               `json:"supplier_id"`
	Note       string             `json:"note"`
	Items      []OrderItemRequest `json:"items"`
	BranchID   *uint              `json:"branch_id"` // super_admin için zorunlu
}

type OrderItemResponse struct {
	ID          uint    `json:"id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

type OrderResponse struct {
	ID          uint                       `json:"id"`
	BranchID    uint                       `json:"branch_id"`
	SupplierID  uint                       `json:"supplier_id"`
	Status      models.PurchaseOrderStatus `json:"status"`
	OrderedAt   *string                    `json:"ordered_at"`
	ReceivedAt  *string                    `json:"received_at"`
	TotalAmount float64                    `json:"total_amount"`
	Note        string                     `json:"note"`
	Items       []OrderItemResponse        `json:"items"`
	CreatedAt   string                     `json:"created_at"`
}

func toOrderResponse(o *models.PurchaseOrder) OrderResponse {
	fmtTime := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.Format("2006-01-02 15:04:05")
		return &s
	}

	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}

	return OrderResponse{
		ID:          o.ID,
		BranchID:    o.BranchID,
		SupplierID:  o.SupplierID,
		Status:      o.Status,
		OrderedAt:   fmtTime(o.OrderedAt),
		ReceivedAt:  fmtTime(o.ReceivedAt),
		TotalAmount: o.TotalAmount,
		Note:        o.Note,
		Items:       items,
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------------------------------
// POST /api/purchase-orders
// Taslak sipariş oluşturur; toplam kalemlerden hesaplanır.
// -------------------------------------------------
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := resolveBranchIDFromBodyOrRole(c, body.BranchID)
		if err != nil {
			return err
		}

		// Tedarikçi kontrolü (şube eşleşmesi dahil)
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		if supplier.BranchID != branchID {
			return fiber.NewError(fiber.StatusForbidden, "Tedarikçi başka bir şubeye ait")
		}

		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş kalemi gerekli")
		}

		order := models.PurchaseOrder{
			BranchID:   branchID,
			SupplierID: supplier.ID,
			Status:     models.PurchaseOrderDraft,
			Note:       strings.TrimSpace(body.Note),
		}

		for _, it := range body.Items {
			name := strings.TrimSpace(it.ProductName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kalem adı boş olamaz")
			}
			if it.Quantity <= 0 || it.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Kalem miktarı ve birim fiyatı geçersiz")
			}
			total := it.Quantity * it.UnitPrice
			order.Items = append(order.Items, models.PurchaseOrderItem{
				ProductName: name,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TotalPrice:  total,
			})
			order.TotalAmount += total
		}

		// Sipariş ve kalemleri tek transaction'da yazılır
		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			branchIDForLog := &order.BranchID
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    branchIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_order",
				EntityID:    order.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Sipariş taslağı oluşturuldu: %s - %.2f TL", supplier.Name, order.TotalAmount),
				Before:      nil,
				After:       toOrderResponse(&order),
			}); logErr != nil {
				log.Println("Audit log yazılamadı:", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(&order))
	}
}

// -------------------------------------------------
// GET /api/purchase-orders?status=draft&branch_id=1
// -------------------------------------------------
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.PurchaseOrder{}).Where("branch_id = ?", branchID)

		if stStr := c.Query("status"); stStr != "" {
			st := models.PurchaseOrderStatus(stStr)
			switch st {
			case models.PurchaseOrderDraft, models.PurchaseOrderOrdered, models.PurchaseOrderReceived:
				dbq = dbq.Where("status = ?", st)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz (draft|ordered|received)")
			}
		}

		var orders []models.PurchaseOrder
		if err := dbq.Preload("Items").Order("created_at desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		res := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			res = append(res, toOrderResponse(&orders[i]))
		}

		return c.JSON(res)
	}
}

// -------------------------------------------------
// GET /api/purchase-orders/:id
// -------------------------------------------------
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.PurchaseOrder
		if err := database.DB.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if err := checkBranchScope(c, order.BranchID); err != nil {
			return err
		}

		return c.JSON(toOrderResponse(&order))
	}
}

// transitionOrder: draft -> ordered -> received akışındaki tek adımlık
// geçişlerin ortak gövdesi. Yanlış durumdan geçiş 409 döner.
func transitionOrder(c *fiber.Ctx, from, to models.PurchaseOrderStatus, describe string) error {
	id := c.Params("id")

	var order models.PurchaseOrder
	if err := database.DB.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	}

	if err := checkBranchScope(c, order.BranchID); err != nil {
		return err
	}

	if order.Status != from {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("Sipariş %s durumunda değil (mevcut: %s)", from, order.Status))
	}

	before := toOrderResponse(&order)

	now := time.Now()
	order.Status = to
	switch to {
	case models.PurchaseOrderOrdered:
		order.OrderedAt = &now
	case models.PurchaseOrderReceived:
		order.ReceivedAt = &now
	}

	if err := database.DB.Save(&order).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
	}

	userID, userName, err := getUserInfo(c)
	if err == nil {
		branchIDForLog := &order.BranchID
		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    branchIDForLog,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_order",
			EntityID:    order.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s: sipariş #%d", describe, order.ID),
			Before:      before,
			After:       toOrderResponse(&order),
		}); logErr != nil {
			log.Println("Audit log yazılamadı:", logErr)
		}
	}

	return c.JSON(toOrderResponse(&order))
}

// POST /api/purchase-orders/:id/submit (draft -> ordered)
func SubmitOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionOrder(c, models.PurchaseOrderDraft, models.PurchaseOrderOrdered, "Sipariş tedarikçiye iletildi")
	}
}

// POST /api/purchase-orders/:id/receive (ordered -> received)
func ReceiveOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionOrder(c, models.PurchaseOrderOrdered, models.PurchaseOrderReceived, "Sipariş teslim alındı")
	}
}
