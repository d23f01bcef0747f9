package models

import "time"

type PurchaseOrderStatus string

const (
	PurchaseOrderDraft    PurchaseOrderStatus = "draft"
	PurchaseOrderOrdered  PurchaseOrderStatus = "ordered"
	PurchaseOrderReceived PurchaseOrderStatus = "received"
)

// PurchaseOrder: tedarikçiye verilen sipariş.
// Durum akışı: draft -> ordered -> received, geri dönüş yok.
type PurchaseOrder struct {
	ID         uint `gorm:"primaryKey"`
	BranchID   uint `gorm:"index;not null"`
	Branch     Branch
	SupplierID uint `gorm:"index;not null"`
	Supplier   Supplier

	Status     PurchaseOrderStatus `gorm:"size:10;index;not null"`
	OrderedAt  *time.Time          // draft -> ordered anı
	ReceivedAt *time.Time          // ordered -> received anı

	TotalAmount float64 `gorm:"not null;default:0"` // kalem toplamlarından hesaplanır
	Note        string  `gorm:"size:255"`

	Items     []PurchaseOrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PurchaseOrderItem struct {
	ID              uint    `gorm:"primaryKey"`
	PurchaseOrderID uint    `gorm:"index;not null"`
	ProductName     string  `gorm:"size:100;not null"`
	Quantity        float64 `gorm:"not null"`
	UnitPrice       float64 `gorm:"not null"`
	TotalPrice      float64 `gorm:"not null"` // quantity * unit_price
	CreatedAt       time.Time
}
