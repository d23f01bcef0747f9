package cashsession

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"market-backend/internal/models"
)

// Service kasa oturumu yaşam döngüsünü yönetir: açma, hareket kaydı,
// satış toplamı ve kapanış mutabakatı. Tüm mutasyonlar repository'nin
// atomik Mutate birimi üzerinden yapılır; kısmi güncelleme olmaz.
type Service struct {
	repo SessionRepository
}

func NewService(repo SessionRepository) *Service {
	return &Service{repo: repo}
}

type OpenParams struct {
	BranchID     uint
	RegisterID   uint
	CashierID    uint
	OpeningFloat float64
	Notes        string
}

type MovementParams struct {
	SessionID        uint
	Kind             models.MovementKind
	Amount           float64
	Reason           string
	ActorID          uint
	TransferTargetID *uint
}

// Open yeni bir kasa oturumu başlatır. Aynı kasada açık oturum varken
// ikinci bir oturum açılamaz: bir kasanın çekmecesi aynı anda tek
// kasiyerin sorumluluğundadır. Buradaki ön kontrol erken ve anlaşılır
// bir hata verir; kural asıl olarak store'daki kısmi unique index ile
// korunur ve yarışan ikinci açılış Create'te ErrInvalidState alır.
func (s *Service) Open(ctx context.Context, p OpenParams) (*models.CashSession, error) {
	if !finite(p.OpeningFloat) || p.OpeningFloat < 0 {
		return nil, fmt.Errorf("%w: açılış kasası negatif olmayan sonlu bir sayı olmalı", ErrValidation)
	}
	if p.RegisterID == 0 || p.CashierID == 0 {
		return nil, fmt.Errorf("%w: kasa ve kasiyer zorunlu", ErrValidation)
	}

	open := models.SessionOpen
	existing, err := s.repo.List(ctx, SessionFilter{RegisterID: &p.RegisterID, Status: &open})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: bu kasada zaten açık bir oturum var", ErrInvalidState)
	}

	session := &models.CashSession{
		BranchID:     p.BranchID,
		RegisterID:   p.RegisterID,
		CashierID:    p.CashierID,
		Status:       models.SessionOpen,
		OpenedAt:     time.Now(),
		OpeningFloat: p.OpeningFloat,
		Notes:        strings.TrimSpace(p.Notes),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordMovement açık bir oturuma hareket ekler ve oturum toplamlarını
// aynı atomik birim içinde günceller. Transferler çift taraflıdır:
// kaynak oturuma çıkış, hedef oturuma eşleşen bir giriş hareketi yazılır
// ve iki oturum da aynı transaction içinde güncellenir.
func (s *Service) RecordMovement(ctx context.Context, p MovementParams) (*models.CashMovement, error) {
	if !finite(p.Amount) || p.Amount <= 0 {
		return nil, fmt.Errorf("%w: tutar 0'dan büyük sonlu bir sayı olmalı", ErrValidation)
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: gerekçe boş olamaz", ErrValidation)
	}
	if p.ActorID == 0 {
		return nil, fmt.Errorf("%w: işlemi yapan kullanıcı zorunlu", ErrValidation)
	}

	switch p.Kind {
	case models.MovementCashIn, models.MovementCashOut:
		if p.TransferTargetID != nil {
			return nil, fmt.Errorf("%w: transfer hedefi sadece transfer hareketinde verilir", ErrValidation)
		}
	case models.MovementTransfer:
		if p.TransferTargetID == nil {
			return nil, fmt.Errorf("%w: transfer için hedef oturum zorunlu", ErrValidation)
		}
		if *p.TransferTargetID == p.SessionID {
			return nil, fmt.Errorf("%w: oturum kendisine transfer yapamaz", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: geçersiz hareket türü (cash_in|cash_out|transfer)", ErrValidation)
	}

	ids := []uint{p.SessionID}
	if p.Kind == models.MovementTransfer {
		ids = append(ids, *p.TransferTargetID)
	}

	var created *models.CashMovement
	err := s.repo.Mutate(ctx, ids, func(sessions map[uint]*models.CashSession) ([]*models.CashMovement, error) {
		src := sessions[p.SessionID]
		if src.Status != models.SessionOpen {
			return nil, fmt.Errorf("%w: kapalı oturuma hareket eklenemez", ErrInvalidState)
		}

		mov := &models.CashMovement{
			SessionID:        p.SessionID,
			Kind:             p.Kind,
			Amount:           p.Amount,
			Reason:           reason,
			ActorID:          p.ActorID,
			TransferTargetID: p.TransferTargetID,
		}
		movs := []*models.CashMovement{mov}

		switch p.Kind {
		case models.MovementCashIn:
			src.CashInTotal += p.Amount
		case models.MovementCashOut:
			src.CashOutTotal += p.Amount
		case models.MovementTransfer:
			dst := sessions[*p.TransferTargetID]
			if dst.Status != models.SessionOpen {
				return nil, fmt.Errorf("%w: transfer hedefi açık bir oturum olmalı", ErrInvalidState)
			}
			src.CashOutTotal += p.Amount
			dst.CashInTotal += p.Amount
			movs = append(movs, &models.CashMovement{
				SessionID: *p.TransferTargetID,
				Kind:      models.MovementCashIn,
				Amount:    p.Amount,
				Reason:    fmt.Sprintf("Transfer (oturum #%d): %s", p.SessionID, reason),
				ActorID:   p.ActorID,
			})
		}

		created = mov
		return movs, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecordSale satış tutarını açık oturumun satış toplamına ekler.
// Satışlar POS tarafından oturum bazında buraya bildirilir.
func (s *Service) RecordSale(ctx context.Context, sessionID uint, amount float64) (*models.CashSession, error) {
	if !finite(amount) || amount <= 0 {
		return nil, fmt.Errorf("%w: satış tutarı 0'dan büyük sonlu bir sayı olmalı", ErrValidation)
	}

	var out *models.CashSession
	err := s.repo.Mutate(ctx, []uint{sessionID}, func(sessions map[uint]*models.CashSession) ([]*models.CashMovement, error) {
		sess := sessions[sessionID]
		if sess.Status != models.SessionOpen {
			return nil, fmt.Errorf("%w: kapalı oturuma satış eklenemez", ErrInvalidState)
		}
		sess.SalesTotal += amount
		out = sess
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close oturumu kapatır: beklenen kasa hesaplanır, sayım farkı
// sınıflandırılır ve kapanış alanları tek atomik birimde yazılır.
// closed terminal durumdur; kapalı oturum tekrar açılamaz ve kapanış
// alanları bir daha değişmez.
func (s *Service) Close(ctx context.Context, sessionID uint, actualClosingAmount float64, notes string) (*models.CashSession, error) {
	if !finite(actualClosingAmount) || actualClosingAmount < 0 {
		return nil, fmt.Errorf("%w: sayılan tutar negatif olmayan sonlu bir sayı olmalı", ErrValidation)
	}

	var out *models.CashSession
	err := s.repo.Mutate(ctx, []uint{sessionID}, func(sessions map[uint]*models.CashSession) ([]*models.CashMovement, error) {
		sess := sessions[sessionID]
		if sess.Status != models.SessionOpen {
			return nil, fmt.Errorf("%w: oturum zaten kapalı", ErrInvalidState)
		}

		rec := Reconcile(sess, actualClosingAmount)
		now := time.Now()
		status := rec.Status

		sess.Status = models.SessionClosed
		sess.ClosedAt = &now
		sess.ExpectedClosingAmount = &rec.ExpectedClosingAmount
		sess.ActualClosingAmount = &rec.ActualClosingAmount
		sess.DiscrepancyAmount = &rec.DiscrepancyAmount
		sess.DiscrepancyStatus = &status

		if n := strings.TrimSpace(notes); n != "" {
			if sess.Notes != "" {
				sess.Notes += " | "
			}
			sess.Notes += n
		}

		out = sess
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get, List ve Movements salt okunur geçişlerdir.
func (s *Service) Get(ctx context.Context, id uint) (*models.CashSession, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f SessionFilter) ([]models.CashSession, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Movements(ctx context.Context, sessionID uint) ([]models.CashMovement, error) {
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.Movements(ctx, sessionID)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
