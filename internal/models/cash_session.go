package models

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

type DiscrepancyStatus string

const (
	DiscrepancyNone        DiscrepancyStatus = "none"
	DiscrepancyMinor       DiscrepancyStatus = "minor"       // fark < %1
	DiscrepancySignificant DiscrepancyStatus = "significant" // %1 <= fark < %5
	DiscrepancyCritical    DiscrepancyStatus = "critical"    // fark >= %5
)

// CashSession: bir kasiyerin bir kasadaki para sorumluluğu dönemi.
// Açılıştan kapanışa kadar tüm satış ve para hareketleri bu kayıt
// üzerinde toplanır. Kapalı oturum salt okunurdur, asla silinmez.
type CashSession struct {
	ID         uint `gorm:"primaryKey"`
	BranchID   uint `gorm:"index;not null"`
	Branch     Branch
	RegisterID uint `gorm:"index;not null"`
	Register   Register
	CashierID  uint `gorm:"index;not null"` // oturumu açan kasiyer
	Cashier    User `gorm:"foreignKey:CashierID"`

	Status   SessionStatus `gorm:"size:10;index;not null"`
	OpenedAt time.Time     `gorm:"index;not null"`
	ClosedAt *time.Time // sadece status=closed iken dolu

	OpeningFloat float64 `gorm:"not null"`           // açılış kasası
	SalesTotal   float64 `gorm:"not null;default:0"` // oturum boyu satış toplamı
	CashInTotal  float64 `gorm:"not null;default:0"` // para giriş toplamı
	CashOutTotal float64 `gorm:"not null;default:0"` // para çıkış + transfer toplamı

	// Kapanış alanları (sadece status=closed iken dolu)
	ExpectedClosingAmount *float64
	ActualClosingAmount   *float64
	DiscrepancyAmount     *float64 // pozitif = fazla, negatif = eksik
	DiscrepancyStatus     *DiscrepancyStatus `gorm:"size:15"`

	Notes string `gorm:"size:255"`

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
