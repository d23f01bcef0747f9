package cashsession

import (
	"context"
	"time"

	"market-backend/internal/models"
)

// SessionFilter: oturum listeleme kriterleri. nil alanlar filtrelenmez.
type SessionFilter struct {
	BranchID   *uint
	RegisterID *uint
	CashierID  *uint
	Status     *models.SessionStatus
	From       *time.Time // OpenedAt >= From
	To         *time.Time // OpenedAt <= To
}

// MutateFunc kilitli oturumlar üzerinde çalışır. Oturumları yerinde
// değiştirebilir ve kalıcılaştırılacak yeni hareketleri döndürür.
type MutateFunc func(sessions map[uint]*models.CashSession) ([]*models.CashMovement, error)

// SessionRepository oturum ve hareket kayıtlarının tek erişim noktasıdır.
// Uygulama katmanı oturum nesnelerini doğrudan değiştirmez; tüm
// mutasyonlar Service üzerinden buraya iner.
type SessionRepository interface {
	Create(ctx context.Context, s *models.CashSession) error
	Get(ctx context.Context, id uint) (*models.CashSession, error)
	List(ctx context.Context, f SessionFilter) ([]models.CashSession, error)
	Movements(ctx context.Context, sessionID uint) ([]models.CashMovement, error)

	// Mutate verilen oturumları kilitleyerek okur, fn'i çalıştırır ve
	// güncellenen oturumları fn'in döndürdüğü hareketlerle birlikte tek
	// transaction'da yazar. fn hata dönerse hiçbir değişiklik kalıcı olmaz.
	// Bilinmeyen id için ErrNotFound, store hatasında ErrPersistence döner.
	Mutate(ctx context.Context, ids []uint, fn MutateFunc) error
}
