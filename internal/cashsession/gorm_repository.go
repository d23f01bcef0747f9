package cashsession

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"market-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository: SessionRepository'nin Postgres (gorm) implementasyonu.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, s *models.CashSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		// Kısmi unique index (register_id WHERE status='open') ihlali:
		// yarışan ikinci açılış insert sırasında buraya düşer
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: bu kasada zaten açık bir oturum var", ErrInvalidState)
		}
		return fmt.Errorf("%w: oturum oluşturulamadı: %v", ErrPersistence, err)
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (*models.CashSession, error) {
	var s models.CashSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: oturum %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &s, nil
}

func (r *GormRepository) List(ctx context.Context, f SessionFilter) ([]models.CashSession, error) {
	q := r.db.WithContext(ctx).Model(&models.CashSession{})

	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.RegisterID != nil {
		q = q.Where("register_id = ?", *f.RegisterID)
	}
	if f.CashierID != nil {
		q = q.Where("cashier_id = ?", *f.CashierID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.From != nil {
		q = q.Where("opened_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("opened_at <= ?", *f.To)
	}

	var sessions []models.CashSession
	if err := q.Order("opened_at desc, id desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sessions, nil
}

func (r *GormRepository) Movements(ctx context.Context, sessionID uint) ([]models.CashMovement, error) {
	var movs []models.CashMovement
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc"). // kabul sırası
		Find(&movs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return movs, nil
}

// Mutate: oturumlar SELECT ... FOR UPDATE ile kilitlenir, böylece aynı
// oturum üzerinde aynı anda en fazla bir mutasyon yürür. Kilitler deadlock
// olmaması için her zaman artan id sırasıyla alınır.
func (r *GormRepository) Mutate(ctx context.Context, ids []uint, fn MutateFunc) error {
	sorted := make([]uint, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := make(map[uint]*models.CashSession, len(sorted))
		for _, id := range sorted {
			if _, ok := sessions[id]; ok {
				continue
			}
			var s models.CashSession
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&s, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: oturum %d", ErrNotFound, id)
				}
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			sessions[id] = &s
		}

		movs, err := fn(sessions)
		if err != nil {
			return err
		}

		for _, m := range movs {
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("%w: hareket kaydedilemedi: %v", ErrPersistence, err)
			}
		}
		for _, s := range sessions {
			if err := tx.Save(s).Error; err != nil {
				return fmt.Errorf("%w: oturum güncellenemedi: %v", ErrPersistence, err)
			}
		}
		return nil
	})
}
