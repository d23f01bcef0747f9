package models

import "time"

// Register: şubedeki fiziksel yazarkasa. Her kasada aynı anda en fazla
// bir açık oturum olabilir.
type Register struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	Branch    Branch
	Name      string `gorm:"size:100;not null"` // ör: "Kasa 1"
	Location  string `gorm:"size:255"`          // opsiyonel (giriş katı, self-servis vb.)
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
