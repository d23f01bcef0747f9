package cashsession

import (
	"testing"

	"market-backend/internal/models"
)

func session(openingFloat, sales, cashIn, cashOut float64) *models.CashSession {
	return &models.CashSession{
		Status:       models.SessionOpen,
		OpeningFloat: openingFloat,
		SalesTotal:   sales,
		CashInTotal:  cashIn,
		CashOutTotal: cashOut,
	}
}

func TestReconcileExpectedFormula(t *testing.T) {
	// beklenen = açılış + satış + giriş - çıkış
	rec := Reconcile(session(1000, 0, 500, 200), 1300)

	if rec.ExpectedClosingAmount != 1300 {
		t.Errorf("beklenen 1300 olmalı, %v geldi", rec.ExpectedClosingAmount)
	}
	if rec.DiscrepancyAmount != 0 {
		t.Errorf("fark 0 olmalı, %v geldi", rec.DiscrepancyAmount)
	}
	if rec.Status != models.DiscrepancyNone {
		t.Errorf("durum none olmalı, %v geldi", rec.Status)
	}
}

func TestReconcileShortage(t *testing.T) {
	// 1250 sayıldı, 1300 bekleniyordu: -50 eksik, |%3.8| -> significant
	rec := Reconcile(session(1000, 0, 500, 200), 1250)

	if rec.DiscrepancyAmount != -50 {
		t.Errorf("fark -50 olmalı, %v geldi", rec.DiscrepancyAmount)
	}
	if rec.Status != models.DiscrepancySignificant {
		t.Errorf("durum significant olmalı, %v geldi", rec.Status)
	}
}

func TestReconcileIsPure(t *testing.T) {
	s := session(750, 1200, 80, 30)

	first := Reconcile(s, 1900)
	second := Reconcile(s, 1900)

	if first != second {
		t.Errorf("aynı girdiyle farklı sonuç: %+v != %+v", first, second)
	}
	// Reconcile oturumu değiştirmemeli
	if s.Status != models.SessionOpen || s.SalesTotal != 1200 {
		t.Error("Reconcile oturum üzerinde yan etki yaptı")
	}
}

func TestClassifyBoundaries(t *testing.T) {
	// Sınırlar strict (<): tam %1 significant, tam %5 critical sayılır.
	cases := []struct {
		name     string
		expected float64
		diff     float64
		want     models.DiscrepancyStatus
	}{
		{"sıfır fark", 1000, 0, models.DiscrepancyNone},
		{"yüzde 1'in altı", 1000, 9.99, models.DiscrepancyMinor},
		{"tam yüzde 1", 1000, 10, models.DiscrepancySignificant},
		{"yüzde 5'in altı", 1000, 49.99, models.DiscrepancySignificant},
		{"tam yüzde 5", 1000, 50, models.DiscrepancyCritical},
		{"yüzde 5 üstü", 1000, 120, models.DiscrepancyCritical},
		{"negatif küçük fark", 1000, -5, models.DiscrepancyMinor},
		{"negatif tam yüzde 5", 1000, -50, models.DiscrepancyCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.expected, tc.diff); got != tc.want {
				t.Errorf("classify(%v, %v) = %v, beklenen %v", tc.expected, tc.diff, got, tc.want)
			}
		})
	}
}

func TestClassifyZeroExpected(t *testing.T) {
	// Beklenen 0 iken yüzde tanımsız: fark 0 ise none, değilse critical.
	if got := classify(0, 0); got != models.DiscrepancyNone {
		t.Errorf("classify(0, 0) = %v, beklenen none", got)
	}
	if got := classify(0, 5); got != models.DiscrepancyCritical {
		t.Errorf("classify(0, 5) = %v, beklenen critical", got)
	}
	if got := classify(0, -5); got != models.DiscrepancyCritical {
		t.Errorf("classify(0, -5) = %v, beklenen critical", got)
	}
}

func TestReconcileZeroSession(t *testing.T) {
	// Açılış 0, hareket yok, sayım 0: sıfır bölen korumasına rağmen none.
	rec := Reconcile(session(0, 0, 0, 0), 0)

	if rec.ExpectedClosingAmount != 0 || rec.DiscrepancyAmount != 0 {
		t.Errorf("beklenen ve fark 0 olmalı: %+v", rec)
	}
	if rec.Status != models.DiscrepancyNone {
		t.Errorf("durum none olmalı, %v geldi", rec.Status)
	}
}
