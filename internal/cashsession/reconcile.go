package cashsession

import (
	"math"

	"market-backend/internal/models"
)

// Fark yüzdesi eşikleri. Karşılaştırmalar kasıtlı olarak strict (<):
// tam %1 "significant", tam %5 "critical" sayılır. Sınır değerleri
// denetime tabi olduğu için bu kural değiştirilmemeli.
const (
	minorThresholdPct       = 1.0
	significantThresholdPct = 5.0
)

type Reconciliation struct {
	ExpectedClosingAmount float64
	ActualClosingAmount   float64
	DiscrepancyAmount     float64 // pozitif = fazla, negatif = eksik
	Status                models.DiscrepancyStatus
}

// Reconcile kapanış anındaki beklenen kasayı hesaplar ve sayılan tutarla
// arasındaki farkı sınıflandırır. Yan etkisiz ve deterministiktir: aynı
// girdi her zaman aynı sonucu verir. Oturum kapatılan her yerde fark
// hesabının tek kaynağı bu fonksiyondur.
func Reconcile(s *models.CashSession, actualClosingAmount float64) Reconciliation {
	expected := s.OpeningFloat + s.SalesTotal + s.CashInTotal - s.CashOutTotal
	diff := actualClosingAmount - expected

	return Reconciliation{
		ExpectedClosingAmount: expected,
		ActualClosingAmount:   actualClosingAmount,
		DiscrepancyAmount:     diff,
		Status:                classify(expected, diff),
	}
}

func classify(expected, diff float64) models.DiscrepancyStatus {
	if diff == 0 {
		return models.DiscrepancyNone
	}

	// Beklenen 0 iken yüzde tanımsız: sıfır olmayan her sayım farkı
	// tam fark demektir.
	if expected == 0 {
		return models.DiscrepancyCritical
	}

	pct := math.Abs(diff/expected) * 100
	switch {
	case pct < minorThresholdPct:
		return models.DiscrepancyMinor
	case pct < significantThresholdPct:
		return models.DiscrepancySignificant
	default:
		return models.DiscrepancyCritical
	}
}
