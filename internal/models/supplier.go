package models

import "time"

type Supplier struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	Branch    Branch
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	Notes     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
