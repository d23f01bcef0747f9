package database

import (
	"log"

	"market-backend/internal/config"
	"market-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Branch{},
		&models.Register{},
		&models.User{},
		&models.CashSession{},
		&models.CashMovement{},
		&models.Supplier{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Kasa başına tek açık oturum kuralı veritabanı seviyesinde:
	// yarışan iki açılıştan ancak biri commit edebilir
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_sessions_register_open ON cash_sessions(register_id) WHERE status = 'open'")

	// Oturum listeleme sorguları için index
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_cash_sessions_register_status ON cash_sessions(register_id, status)")

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
