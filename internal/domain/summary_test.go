package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSummary() (*BillingSummary, error) {
	return NewBillingSummary(
		"summary-1",
		"card-1",
		"楽天カード",
		"2025-01",
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(52340),
		[]string{"tx-1", "tx-2"},
	)
}

func TestNewBillingSummary(t *testing.T) {
	summary, err := validSummary()
	require.NoError(t, err)
	assert.Equal(t, "2025-01", summary.BillingMonth)
}

func TestNewBillingSummary_Invalid(t *testing.T) {
	base, err := validSummary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(s *BillingSummary)
	}{
		{"month thirteen", func(s *BillingSummary) { s.BillingMonth = "2025-13" }},
		{"month zero", func(s *BillingSummary) { s.BillingMonth = "2025-00" }},
		{"missing dash", func(s *BillingSummary) { s.BillingMonth = "202501" }},
		{"negative amount", func(s *BillingSummary) { s.NetPaymentAmount = decimal.NewFromInt(-1) }},
		{"fractional yen", func(s *BillingSummary) { s.NetPaymentAmount = decimal.NewFromFloat(100.5) }},
		{"empty id", func(s *BillingSummary) { s.ID = "" }},
		{"empty card name", func(s *BillingSummary) { s.CardName = "" }},
		{"zero payment date", func(s *BillingSummary) { s.PaymentDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *base
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestValidBillingMonth(t *testing.T) {
	assert.True(t, ValidBillingMonth("2025-01"))
	assert.True(t, ValidBillingMonth("1999-12"))
	assert.False(t, ValidBillingMonth("2025-1"))
	assert.False(t, ValidBillingMonth("2025/01"))
	assert.False(t, ValidBillingMonth("2025-01-15"))
}

func TestNewBankTransaction(t *testing.T) {
	tx, err := NewBankTransaction("bt-1", time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(50000), "楽天カード")
	require.NoError(t, err)
	assert.Equal(t, "bt-1", tx.ID)

	_, err = NewBankTransaction("", time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(50000), "x")
	assert.Error(t, err)

	_, err = NewBankTransaction("bt-2", time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(500.25), "x")
	assert.Error(t, err, "fractional yen is rejected")
}

func TestNewMatchedResult(t *testing.T) {
	matchedAt := time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)
	result, err := NewMatchedResult("summary-1", "bt-1", matchedAt)
	require.NoError(t, err)
	assert.True(t, result.IsMatched)
	assert.Equal(t, ConfidenceFull, result.Confidence)

	_, err = NewMatchedResult("summary-1", "", matchedAt)
	assert.Error(t, err, "matched results always carry a transaction id")
}

func TestNewUnmatchedResult(t *testing.T) {
	disc, err := NewDiscrepancy(decimal.NewFromInt(1000), -1, false, "amounts differ")
	require.NoError(t, err)

	result, err := NewUnmatchedResult("summary-1", ConfidenceNone, disc)
	require.NoError(t, err)
	assert.False(t, result.IsMatched)
	assert.Nil(t, result.BankTransactionID)

	_, err = NewUnmatchedResult("summary-1", ConfidenceNone, nil)
	assert.Error(t, err, "unmatched results always carry a discrepancy")

	_, err = NewUnmatchedResult("summary-1", ConfidenceFull, disc)
	assert.Error(t, err)
}

func TestNewDiscrepancy_RequiresReason(t *testing.T) {
	_, err := NewDiscrepancy(decimal.Zero, 0, true, "")
	assert.Error(t, err)
}

func TestStatusFromResults(t *testing.T) {
	matched := ReconciliationResult{IsMatched: true, Confidence: ConfidenceFull}
	partial := ReconciliationResult{Confidence: ConfidencePartial}
	unmatched := ReconciliationResult{Confidence: ConfidenceNone}

	assert.Equal(t, ReconciliationPending, StatusFromResults(nil))
	assert.Equal(t, ReconciliationMatched, StatusFromResults([]ReconciliationResult{matched}))
	assert.Equal(t, ReconciliationPartial, StatusFromResults([]ReconciliationResult{partial}))
	assert.Equal(t, ReconciliationUnmatched, StatusFromResults([]ReconciliationResult{unmatched}))
	assert.Equal(t, ReconciliationPartial, StatusFromResults([]ReconciliationResult{matched, partial}))
}

func TestSummarize(t *testing.T) {
	results := []ReconciliationResult{
		{IsMatched: true, Confidence: ConfidenceFull},
		{Confidence: ConfidencePartial},
		{Confidence: ConfidenceNone},
	}
	summary := Summarize(results)
	assert.Equal(t, ReconciliationSummary{Total: 3, Matched: 1, Unmatched: 1, Partial: 1}, summary)
}
