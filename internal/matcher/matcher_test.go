package matcher

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardpay-recon/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// paymentDate 2025-01-27 is a Monday; the three-business-day window runs
// from Wednesday 2025-01-22 through Thursday 2025-01-30.
func testSummary() *domain.BillingSummary {
	return &domain.BillingSummary{
		ID:               "summary-1",
		CardID:           "card-1",
		CardName:         "楽天カード",
		BillingMonth:     "2024-12",
		ClosingDate:      date(2024, 12, 31),
		PaymentDate:      date(2025, 1, 27),
		NetPaymentAmount: decimal.NewFromInt(50000),
	}
}

func tx(id string, d time.Time, amount int64, description string) domain.BankTransaction {
	return domain.BankTransaction{
		ID:          id,
		Date:        d,
		Amount:      decimal.NewFromInt(amount),
		Description: description,
	}
}

func TestMatch_FullMatch(t *testing.T) {
	m := New()
	result, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 50000, "楽天カード　振替"),
		tx("bt-2", date(2025, 1, 27), 12000, "電気料金"),
	})

	require.NoError(t, err)
	assert.True(t, result.IsMatched)
	assert.Equal(t, domain.ConfidenceFull, result.Confidence)
	require.NotNil(t, result.BankTransactionID)
	assert.Equal(t, "bt-1", *result.BankTransactionID)
	require.NotNil(t, result.MatchedAt)
	assert.Equal(t, date(2025, 1, 27), *result.MatchedAt)
	assert.Nil(t, result.Discrepancy)
}

func TestMatch_NormalizedDescription(t *testing.T) {
	m := New()
	// Dashes, long-vowel marks and spacing must not defeat the keyword
	// check: card name "セゾンカード" matched against a spaced description.
	summary := testSummary()
	summary.CardName = "セゾンカード"

	result, err := m.Match(summary, []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 50000, "セ ゾ ン　引き落とし"),
	})

	require.NoError(t, err)
	assert.True(t, result.IsMatched)
	assert.Equal(t, domain.ConfidenceFull, result.Confidence)
}

func TestMatch_FallbackKeywords(t *testing.T) {
	m := New()
	// No issuer fragment in the card name: generic card/credit tokens apply.
	summary := testSummary()
	summary.CardName = "マイナーカード株式会社"

	result, err := m.Match(summary, []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 50000, "クレジット引落"),
	})

	require.NoError(t, err)
	assert.True(t, result.IsMatched)
}

func TestMatch_PartialMatch(t *testing.T) {
	m := New()
	result, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 28), 50000, "ﾐﾂﾋﾞｼUFJ銀行"),
	})

	require.NoError(t, err)
	assert.False(t, result.IsMatched)
	assert.Equal(t, domain.ConfidencePartial, result.Confidence)
	assert.Nil(t, result.BankTransactionID)
	require.NotNil(t, result.Discrepancy)
	assert.True(t, result.Discrepancy.AmountDifference.IsZero())
	assert.Equal(t, 1, result.Discrepancy.DateDifference)
	assert.False(t, result.Discrepancy.DescriptionMatch)
	assert.Equal(t, "amount and date matched but description did not", result.Discrepancy.Reason)
}

func TestMatch_PartialPicksClosestDate(t *testing.T) {
	m := New()
	result, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-far", date(2025, 1, 30), 50000, "身に覚えのない入金"),
		tx("bt-near", date(2025, 1, 28), 50000, "身に覚えのない入金"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ConfidencePartial, result.Confidence)
	assert.Equal(t, 1, result.Discrepancy.DateDifference)
}

func TestMatch_AmbiguousTie(t *testing.T) {
	m := New()
	// One business day before and one after the payment date: an exact tie.
	_, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-before", date(2025, 1, 24), 50000, "不明な引落"),
		tx("bt-after", date(2025, 1, 28), 50000, "不明な引落"),
	})

	var ambiguous *domain.AmbiguousMatchError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Candidates, 2)
	assert.Equal(t, "summary-1", ambiguous.CardSummaryID)
}

func TestMatch_AmbiguousFullMatches(t *testing.T) {
	m := New()
	// Two transactions pass every filter: still not a silent pick.
	_, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 50000, "楽天カード"),
		tx("bt-2", date(2025, 1, 28), 50000, "楽天カード"),
	})

	var ambiguous *domain.AmbiguousMatchError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestMatch_AmountMismatch(t *testing.T) {
	m := New()
	result, err := m.Match(testSummary(), []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 49000, "楽天カード"),
		tx("bt-2", date(2025, 1, 28), 30000, "家賃"),
	})

	require.NoError(t, err)
	assert.False(t, result.IsMatched)
	assert.Equal(t, domain.ConfidenceNone, result.Confidence)
	require.NotNil(t, result.Discrepancy)
	assert.True(t, result.Discrepancy.AmountDifference.Equal(decimal.NewFromInt(1000)), "reports the closest amount")
	assert.Equal(t, 0, result.Discrepancy.DateDifference)
	assert.True(t, result.Discrepancy.DescriptionMatch, "closest transaction does reference the card")
	assert.NotEmpty(t, result.Discrepancy.Reason)
}

func TestMatch_EmptyWindow(t *testing.T) {
	m := New()
	result, err := m.Match(testSummary(), []domain.BankTransaction{
		// 2025-01-21 is four business days before the payment date.
		tx("bt-out", date(2025, 1, 21), 50000, "楽天カード"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceNone, result.Confidence)
	require.NotNil(t, result.Discrepancy)
	assert.True(t, result.Discrepancy.AmountDifference.Equal(decimal.NewFromInt(50000)), "full unmatched amount")
	assert.Equal(t, "no transaction found in payment date window", result.Discrepancy.Reason)
}

func TestMatch_Idempotent(t *testing.T) {
	m := New()
	candidates := []domain.BankTransaction{
		tx("bt-1", date(2025, 1, 27), 50000, "楽天カード"),
		tx("bt-2", date(2025, 1, 23), 48000, "水道料金"),
	}

	first, err := m.Match(testSummary(), candidates)
	require.NoError(t, err)
	second, err := m.Match(testSummary(), candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWindow(t *testing.T) {
	m := New()
	start, end := m.Window(date(2025, 1, 27))
	assert.Equal(t, date(2025, 1, 22), start)
	assert.Equal(t, date(2025, 1, 30), end)
}

func TestKeywordsForCard(t *testing.T) {
	assert.Contains(t, keywordsForCard("楽天カード"), "楽天")
	assert.Contains(t, keywordsForCard("Rakuten Card"), "rakuten")
	assert.Equal(t, []string{"カド", "クレジット", "card", "credit"}, keywordsForCard("無名のカード"))
}
