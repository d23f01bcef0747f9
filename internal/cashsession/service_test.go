package cashsession

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"market-backend/internal/models"
)

// memRepo: testler için in-memory SessionRepository. Mutate, gerçek
// implementasyon gibi ya-hep-ya-hiç davranır: fn hata dönerse hiçbir
// değişiklik görünmez.
type memRepo struct {
	nextSessionID  uint
	nextMovementID uint
	sessions       map[uint]*models.CashSession
	movements      []models.CashMovement
	failMutate     error // set edilirse Mutate commit aşamasında bu hatayla düşer
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[uint]*models.CashSession)}
}

func (r *memRepo) Create(ctx context.Context, s *models.CashSession) error {
	// Store'daki kısmi unique index gibi: kasa başına tek açık oturum
	if s.Status == models.SessionOpen {
		for _, ex := range r.sessions {
			if ex.RegisterID == s.RegisterID && ex.Status == models.SessionOpen {
				return fmt.Errorf("%w: bu kasada zaten açık bir oturum var", ErrInvalidState)
			}
		}
	}
	r.nextSessionID++
	s.ID = r.nextSessionID
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memRepo) Get(ctx context.Context, id uint) (*models.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: oturum %d", ErrNotFound, id)
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, f SessionFilter) ([]models.CashSession, error) {
	var out []models.CashSession
	for _, s := range r.sessions {
		if f.RegisterID != nil && s.RegisterID != *f.RegisterID {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.BranchID != nil && s.BranchID != *f.BranchID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *memRepo) Movements(ctx context.Context, sessionID uint) ([]models.CashMovement, error) {
	var out []models.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) Mutate(ctx context.Context, ids []uint, fn MutateFunc) error {
	// fn kopyalar üzerinde çalışır; commit sadece başarıda yapılır
	work := make(map[uint]*models.CashSession, len(ids))
	for _, id := range ids {
		s, ok := r.sessions[id]
		if !ok {
			return fmt.Errorf("%w: oturum %d", ErrNotFound, id)
		}
		cp := *s
		work[id] = &cp
	}

	movs, err := fn(work)
	if err != nil {
		return err
	}
	if r.failMutate != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, r.failMutate)
	}

	for _, m := range movs {
		r.nextMovementID++
		m.ID = r.nextMovementID
		m.CreatedAt = time.Now()
		r.movements = append(r.movements, *m)
	}
	for id, cp := range work {
		committed := *cp
		r.sessions[id] = &committed
	}
	return nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo), repo
}

func openSession(t *testing.T, svc *Service, registerID uint, openingFloat float64) *models.CashSession {
	t.Helper()
	s, err := svc.Open(context.Background(), OpenParams{
		BranchID:     1,
		RegisterID:   registerID,
		CashierID:    7,
		OpeningFloat: openingFloat,
	})
	if err != nil {
		t.Fatalf("oturum açılamadı: %v", err)
	}
	return s
}

func recordMovement(t *testing.T, svc *Service, sessionID uint, kind models.MovementKind, amount float64) *models.CashMovement {
	t.Helper()
	m, err := svc.RecordMovement(context.Background(), MovementParams{
		SessionID: sessionID,
		Kind:      kind,
		Amount:    amount,
		Reason:    "test hareketi",
		ActorID:   7,
	})
	if err != nil {
		t.Fatalf("hareket kaydedilemedi: %v", err)
	}
	return m
}

func TestOpenCloseWithoutDiscrepancy(t *testing.T) {
	// Açılış 1000, giriş 500, çıkış 200, sayım 1300: fark yok.
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 1000)
	recordMovement(t, svc, s.ID, models.MovementCashIn, 500)
	recordMovement(t, svc, s.ID, models.MovementCashOut, 200)

	closed, err := svc.Close(ctx, s.ID, 1300, "")
	if err != nil {
		t.Fatalf("oturum kapatılamadı: %v", err)
	}

	if *closed.ExpectedClosingAmount != 1300 {
		t.Errorf("beklenen 1300 olmalı, %v geldi", *closed.ExpectedClosingAmount)
	}
	if *closed.DiscrepancyAmount != 0 {
		t.Errorf("fark 0 olmalı, %v geldi", *closed.DiscrepancyAmount)
	}
	if *closed.DiscrepancyStatus != models.DiscrepancyNone {
		t.Errorf("durum none olmalı, %v geldi", *closed.DiscrepancyStatus)
	}
	if closed.Status != models.SessionClosed || closed.ClosedAt == nil {
		t.Error("oturum closed durumda ve kapanış zamanı dolu olmalı")
	}
}

func TestCloseWithShortage(t *testing.T) {
	// Aynı senaryo, 1250 sayıldı: -50 eksik -> significant.
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 1000)
	recordMovement(t, svc, s.ID, models.MovementCashIn, 500)
	recordMovement(t, svc, s.ID, models.MovementCashOut, 200)

	closed, err := svc.Close(ctx, s.ID, 1250, "")
	if err != nil {
		t.Fatalf("oturum kapatılamadı: %v", err)
	}

	if *closed.DiscrepancyAmount != -50 {
		t.Errorf("fark -50 olmalı, %v geldi", *closed.DiscrepancyAmount)
	}
	if *closed.DiscrepancyStatus != models.DiscrepancySignificant {
		t.Errorf("durum significant olmalı, %v geldi", *closed.DiscrepancyStatus)
	}
}

func TestCloseEmptySession(t *testing.T) {
	// Açılış 0, hareket yok, sayım 0: sıfır bölen korumasıyla none.
	svc, _ := newTestService()

	s := openSession(t, svc, 1, 0)
	closed, err := svc.Close(context.Background(), s.ID, 0, "")
	if err != nil {
		t.Fatalf("oturum kapatılamadı: %v", err)
	}

	if *closed.ExpectedClosingAmount != 0 || *closed.DiscrepancyAmount != 0 {
		t.Errorf("beklenen ve fark 0 olmalı: %+v", closed)
	}
	if *closed.DiscrepancyStatus != models.DiscrepancyNone {
		t.Errorf("durum none olmalı, %v geldi", *closed.DiscrepancyStatus)
	}
}

func TestTotalsInvariant(t *testing.T) {
	// Her hareketten sonra toplamlar hareket tutarlarının toplamına eşit.
	svc, repo := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 100)

	type step struct {
		kind   models.MovementKind
		amount float64
	}
	steps := []step{
		{models.MovementCashIn, 50},
		{models.MovementCashOut, 20},
		{models.MovementCashIn, 30.5},
		{models.MovementCashOut, 10.25},
	}

	var wantIn, wantOut float64
	for _, st := range steps {
		recordMovement(t, svc, s.ID, st.kind, st.amount)
		if st.kind == models.MovementCashIn {
			wantIn += st.amount
		} else {
			wantOut += st.amount
		}

		cur, err := svc.Get(ctx, s.ID)
		if err != nil {
			t.Fatalf("oturum okunamadı: %v", err)
		}
		if cur.CashInTotal != wantIn || cur.CashOutTotal != wantOut {
			t.Errorf("toplamlar tutmuyor: in=%v (beklenen %v), out=%v (beklenen %v)",
				cur.CashInTotal, wantIn, cur.CashOutTotal, wantOut)
		}
	}

	movs, _ := repo.Movements(ctx, s.ID)
	if len(movs) != len(steps) {
		t.Errorf("%d hareket bekleniyordu, %d kayıtlı", len(steps), len(movs))
	}
}

func TestValidationRejectsBadAmounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 100)

	bad := []float64{-10, 0}
	for _, amount := range bad {
		_, err := svc.RecordMovement(ctx, MovementParams{
			SessionID: s.ID,
			Kind:      models.MovementCashIn,
			Amount:    amount,
			Reason:    "test",
			ActorID:   7,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("tutar %v için ErrValidation bekleniyordu, %v geldi", amount, err)
		}
	}

	// Hata sonrası toplamlar değişmemeli
	cur, _ := svc.Get(ctx, s.ID)
	if cur.CashInTotal != 0 || cur.CashOutTotal != 0 {
		t.Error("geçersiz hareket toplamları değiştirdi")
	}

	if _, err := svc.RecordMovement(ctx, MovementParams{
		SessionID: s.ID,
		Kind:      models.MovementCashIn,
		Amount:    10,
		Reason:    "   ",
		ActorID:   7,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("boş gerekçe için ErrValidation bekleniyordu, %v geldi", err)
	}

	if _, err := svc.Open(ctx, OpenParams{BranchID: 1, RegisterID: 2, CashierID: 7, OpeningFloat: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("negatif açılış için ErrValidation bekleniyordu, %v geldi", err)
	}
}

func TestCloseTwiceFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 500)

	first, err := svc.Close(ctx, s.ID, 500, "")
	if err != nil {
		t.Fatalf("ilk kapanış başarısız: %v", err)
	}

	_, err = svc.Close(ctx, s.ID, 999, "")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("ikinci kapanış için ErrInvalidState bekleniyordu, %v geldi", err)
	}

	// Kapanış alanları değişmemiş olmalı
	cur, _ := svc.Get(ctx, s.ID)
	if *cur.ActualClosingAmount != *first.ActualClosingAmount ||
		*cur.DiscrepancyAmount != *first.DiscrepancyAmount {
		t.Error("başarısız ikinci kapanış kapanış alanlarını değiştirdi")
	}
}

func TestMovementOnClosedSessionFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 500)
	if _, err := svc.Close(ctx, s.ID, 500, ""); err != nil {
		t.Fatalf("kapanış başarısız: %v", err)
	}

	_, err := svc.RecordMovement(ctx, MovementParams{
		SessionID: s.ID,
		Kind:      models.MovementCashIn,
		Amount:    10,
		Reason:    "test",
		ActorID:   7,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("kapalı oturum için ErrInvalidState bekleniyordu, %v geldi", err)
	}

	cur, _ := svc.Get(ctx, s.ID)
	if cur.CashInTotal != 0 {
		t.Error("kapalı oturumun toplamı değişti")
	}

	if _, err := svc.RecordSale(ctx, s.ID, 100); !errors.Is(err, ErrInvalidState) {
		t.Errorf("kapalı oturuma satış için ErrInvalidState bekleniyordu, %v geldi", err)
	}
}

func TestTransferIsTwoSided(t *testing.T) {
	// Transfer kaynaktan çıkış, hedefe eşleşen giriş yazar; iki oturum
	// da aynı atomik birimde güncellenir.
	svc, repo := newTestService()
	ctx := context.Background()

	src := openSession(t, svc, 1, 1000)
	dst := openSession(t, svc, 2, 200)

	_, err := svc.RecordMovement(ctx, MovementParams{
		SessionID:        src.ID,
		Kind:             models.MovementTransfer,
		Amount:           300,
		Reason:           "kasa takviyesi",
		ActorID:          7,
		TransferTargetID: &dst.ID,
	})
	if err != nil {
		t.Fatalf("transfer kaydedilemedi: %v", err)
	}

	srcCur, _ := svc.Get(ctx, src.ID)
	dstCur, _ := svc.Get(ctx, dst.ID)
	if srcCur.CashOutTotal != 300 {
		t.Errorf("kaynak çıkış toplamı 300 olmalı, %v geldi", srcCur.CashOutTotal)
	}
	if dstCur.CashInTotal != 300 {
		t.Errorf("hedef giriş toplamı 300 olmalı, %v geldi", dstCur.CashInTotal)
	}

	srcMovs, _ := repo.Movements(ctx, src.ID)
	dstMovs, _ := repo.Movements(ctx, dst.ID)
	if len(srcMovs) != 1 || srcMovs[0].Kind != models.MovementTransfer {
		t.Errorf("kaynakta 1 transfer hareketi bekleniyordu: %+v", srcMovs)
	}
	if len(dstMovs) != 1 || dstMovs[0].Kind != models.MovementCashIn {
		t.Errorf("hedefte 1 giriş hareketi bekleniyordu: %+v", dstMovs)
	}
}

func TestTransferValidation(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	src := openSession(t, svc, 1, 1000)

	// Hedefsiz transfer
	_, err := svc.RecordMovement(ctx, MovementParams{
		SessionID: src.ID,
		Kind:      models.MovementTransfer,
		Amount:    100,
		Reason:    "test",
		ActorID:   7,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("hedefsiz transfer için ErrValidation bekleniyordu, %v geldi", err)
	}

	// Kendine transfer
	_, err = svc.RecordMovement(ctx, MovementParams{
		SessionID:        src.ID,
		Kind:             models.MovementTransfer,
		Amount:           100,
		Reason:           "test",
		ActorID:          7,
		TransferTargetID: &src.ID,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("kendine transfer için ErrValidation bekleniyordu, %v geldi", err)
	}

	// Kapalı hedefe transfer: hata ve hiçbir yan etki yok
	dst := openSession(t, svc, 2, 0)
	if _, err := svc.Close(ctx, dst.ID, 0, ""); err != nil {
		t.Fatalf("hedef kapatılamadı: %v", err)
	}
	_, err = svc.RecordMovement(ctx, MovementParams{
		SessionID:        src.ID,
		Kind:             models.MovementTransfer,
		Amount:           100,
		Reason:           "test",
		ActorID:          7,
		TransferTargetID: &dst.ID,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("kapalı hedefe transfer için ErrInvalidState bekleniyordu, %v geldi", err)
	}

	srcCur, _ := svc.Get(ctx, src.ID)
	if srcCur.CashOutTotal != 0 {
		t.Error("başarısız transfer kaynak toplamını değiştirdi")
	}
	if movs, _ := repo.Movements(ctx, src.ID); len(movs) != 0 {
		t.Error("başarısız transfer hareket kaydı bıraktı")
	}
}

func TestSecondOpenSessionOnRegisterFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	openSession(t, svc, 1, 100)

	_, err := svc.Open(ctx, OpenParams{BranchID: 1, RegisterID: 1, CashierID: 8, OpeningFloat: 50})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("aynı kasada ikinci oturum için ErrInvalidState bekleniyordu, %v geldi", err)
	}

	// Kapanınca tekrar açılabilmeli
	sessions, _ := svc.List(ctx, SessionFilter{})
	if err := closeAll(ctx, svc, sessions); err != nil {
		t.Fatalf("oturumlar kapatılamadı: %v", err)
	}
	if _, err := svc.Open(ctx, OpenParams{BranchID: 1, RegisterID: 1, CashierID: 8, OpeningFloat: 50}); err != nil {
		t.Errorf("kapalı kasada yeni oturum açılamadı: %v", err)
	}
}

// staleListRepo: List her zaman boş döner. Open'ın ön kontrolünün hiçbir
// şey görmediği yarış anını taklit eder; kuralı insert'teki unique
// kısıt yakalamalı.
type staleListRepo struct{ *memRepo }

func (r staleListRepo) List(ctx context.Context, f SessionFilter) ([]models.CashSession, error) {
	return nil, nil
}

func TestConcurrentOpenCaughtAtInsert(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(staleListRepo{repo})
	ctx := context.Background()

	if _, err := svc.Open(ctx, OpenParams{BranchID: 1, RegisterID: 1, CashierID: 7, OpeningFloat: 100}); err != nil {
		t.Fatalf("ilk oturum açılamadı: %v", err)
	}

	_, err := svc.Open(ctx, OpenParams{BranchID: 1, RegisterID: 1, CashierID: 8, OpeningFloat: 50})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("yarışan ikinci açılış için ErrInvalidState bekleniyordu, %v geldi", err)
	}

	if len(repo.sessions) != 1 {
		t.Errorf("kasada tek oturum kalmalıydı, %d var", len(repo.sessions))
	}
}

func closeAll(ctx context.Context, svc *Service, sessions []models.CashSession) error {
	for _, s := range sessions {
		if s.Status != models.SessionOpen {
			continue
		}
		expected := s.OpeningFloat + s.SalesTotal + s.CashInTotal - s.CashOutTotal
		if _, err := svc.Close(ctx, s.ID, expected, ""); err != nil {
			return err
		}
	}
	return nil
}

func TestRecordSaleAccumulates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 100)

	if _, err := svc.RecordSale(ctx, s.ID, 250); err != nil {
		t.Fatalf("satış kaydedilemedi: %v", err)
	}
	updated, err := svc.RecordSale(ctx, s.ID, 149.5)
	if err != nil {
		t.Fatalf("satış kaydedilemedi: %v", err)
	}

	if updated.SalesTotal != 399.5 {
		t.Errorf("satış toplamı 399.5 olmalı, %v geldi", updated.SalesTotal)
	}

	if _, err := svc.RecordSale(ctx, s.ID, -5); !errors.Is(err, ErrValidation) {
		t.Errorf("negatif satış için ErrValidation bekleniyordu, %v geldi", err)
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("bilinmeyen oturum için ErrNotFound bekleniyordu, %v geldi", err)
	}
	if _, err := svc.Close(ctx, 42, 0, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("bilinmeyen oturum kapanışı için ErrNotFound bekleniyordu, %v geldi", err)
	}
	if _, err := svc.RecordMovement(ctx, MovementParams{
		SessionID: 42,
		Kind:      models.MovementCashIn,
		Amount:    10,
		Reason:    "test",
		ActorID:   7,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("bilinmeyen oturuma hareket için ErrNotFound bekleniyordu, %v geldi", err)
	}
}

func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	// Store commit aşamasında düşerse hata ErrPersistence olarak yüzeye
	// çıkar ve toplamlar değişmeden kalır.
	svc, repo := newTestService()
	ctx := context.Background()

	s := openSession(t, svc, 1, 100)
	repo.failMutate = errors.New("connection reset")

	_, err := svc.RecordMovement(ctx, MovementParams{
		SessionID: s.ID,
		Kind:      models.MovementCashIn,
		Amount:    10,
		Reason:    "test",
		ActorID:   7,
	})
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("ErrPersistence bekleniyordu, %v geldi", err)
	}

	repo.failMutate = nil
	cur, _ := svc.Get(ctx, s.ID)
	if cur.CashInTotal != 0 {
		t.Error("başarısız commit toplamları değiştirdi")
	}
	if movs, _ := repo.Movements(ctx, s.ID); len(movs) != 0 {
		t.Error("başarısız commit hareket kaydı bıraktı")
	}
}
