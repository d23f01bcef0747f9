package models

import "time"

type MovementKind string

const (
	MovementCashIn   MovementKind = "cash_in"  // kasaya para girişi
	MovementCashOut  MovementKind = "cash_out" // kasadan para çıkışı
	MovementTransfer MovementKind = "transfer" // başka oturuma transfer
)

// CashMovement: açık bir oturuma yazılan tekil para hareketi.
// Oluşturulduktan sonra değiştirilmez; düzeltme gerekiyorsa ters
// yönde yeni bir hareket girilir.
type CashMovement struct {
	ID        uint         `gorm:"primaryKey"`
	SessionID uint         `gorm:"index;not null"`
	Kind      MovementKind `gorm:"size:10;not null"`
	Amount    float64      `gorm:"not null"`          // her zaman pozitif
	Reason    string       `gorm:"size:255;not null"` // gerekçe zorunlu
	ActorID   uint         `gorm:"not null"`          // hareketi giren kullanıcı
	Actor     User         `gorm:"foreignKey:ActorID"`

	// kind=transfer ise karşı oturum
	TransferTargetID *uint `gorm:"index"`

	CreatedAt time.Time
}
