package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Match confidence is three-valued: no match, partial match, full match.
const (
	ConfidenceNone    = 0
	ConfidencePartial = 70
	ConfidenceFull    = 100
)

// Discrepancy explains why a billing summary did not fully match a bank
// transaction. Pure value, derived from one reconciliation attempt.
type Discrepancy struct {
	AmountDifference decimal.Decimal `json:"amount_difference"`
	DateDifference   int             `json:"date_difference"` // signed business days
	DescriptionMatch bool            `json:"description_match"`
	Reason           string          `json:"reason"`
}

func NewDiscrepancy(amountDifference decimal.Decimal, dateDifference int, descriptionMatch bool, reason string) (*Discrepancy, error) {
	if reason == "" {
		return nil, fmt.Errorf("discrepancy reason is required")
	}
	if !amountDifference.IsInteger() {
		return nil, fmt.Errorf("amount difference must be whole yen, got %s", amountDifference)
	}
	return &Discrepancy{
		AmountDifference: amountDifference,
		DateDifference:   dateDifference,
		DescriptionMatch: descriptionMatch,
		Reason:           reason,
	}, nil
}

// ReconciliationResult is the outcome of matching one billing summary
// against candidate bank transactions. Matched results carry a transaction
// id and timestamp; unmatched results carry a discrepancy.
type ReconciliationResult struct {
	IsMatched         bool         `json:"is_matched"`
	Confidence        int          `json:"confidence"`
	BankTransactionID *string      `json:"bank_transaction_id,omitempty"`
	CardSummaryID     string       `json:"card_summary_id"`
	MatchedAt         *time.Time   `json:"matched_at,omitempty"`
	Discrepancy       *Discrepancy `json:"discrepancy,omitempty"`
}

// NewMatchedResult builds a full-confidence result for a confirmed match.
func NewMatchedResult(cardSummaryID, bankTransactionID string, matchedAt time.Time) (*ReconciliationResult, error) {
	if cardSummaryID == "" {
		return nil, fmt.Errorf("card summary id is required")
	}
	if bankTransactionID == "" {
		return nil, fmt.Errorf("matched result requires a bank transaction id")
	}
	return &ReconciliationResult{
		IsMatched:         true,
		Confidence:        ConfidenceFull,
		BankTransactionID: &bankTransactionID,
		CardSummaryID:     cardSummaryID,
		MatchedAt:         &matchedAt,
	}, nil
}

// NewUnmatchedResult builds a non-matched result at the given confidence,
// which must be below full.
func NewUnmatchedResult(cardSummaryID string, confidence int, discrepancy *Discrepancy) (*ReconciliationResult, error) {
	if cardSummaryID == "" {
		return nil, fmt.Errorf("card summary id is required")
	}
	if confidence != ConfidenceNone && confidence != ConfidencePartial {
		return nil, fmt.Errorf("unmatched result confidence must be %d or %d, got %d", ConfidenceNone, ConfidencePartial, confidence)
	}
	if discrepancy == nil {
		return nil, fmt.Errorf("unmatched result requires a discrepancy")
	}
	return &ReconciliationResult{
		IsMatched:     false,
		Confidence:    confidence,
		CardSummaryID: cardSummaryID,
		Discrepancy:   discrepancy,
	}, nil
}

// ReconciliationStatus classifies a reconciliation run.
type ReconciliationStatus string

const (
	ReconciliationMatched   ReconciliationStatus = "MATCHED"
	ReconciliationUnmatched ReconciliationStatus = "UNMATCHED"
	ReconciliationPartial   ReconciliationStatus = "PARTIAL"
	ReconciliationPending   ReconciliationStatus = "PENDING"
)

// ReconciliationSummary aggregates result counts for one run.
type ReconciliationSummary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Partial   int `json:"partial"`
}

// Reconciliation is the persisted aggregate for one card+billing-month run.
// Upserts preserve the original ID and CreatedAt.
type Reconciliation struct {
	ID           string                 `json:"id" db:"id"`
	CardID       string                 `json:"card_id" db:"card_id"`
	BillingMonth string                 `json:"billing_month" db:"billing_month"`
	Status       ReconciliationStatus   `json:"status" db:"status"`
	ExecutedAt   time.Time              `json:"executed_at" db:"executed_at"`
	Results      []ReconciliationResult `json:"results"`
	Summary      ReconciliationSummary  `json:"summary"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
}

// StatusFromResults derives the aggregate status from the result set.
func StatusFromResults(results []ReconciliationResult) ReconciliationStatus {
	if len(results) == 0 {
		return ReconciliationPending
	}
	matched, partial := 0, 0
	for _, r := range results {
		switch {
		case r.IsMatched:
			matched++
		case r.Confidence == ConfidencePartial:
			partial++
		}
	}
	switch {
	case matched == len(results):
		return ReconciliationMatched
	case partial > 0:
		return ReconciliationPartial
	default:
		return ReconciliationUnmatched
	}
}

// Summarize counts results by outcome.
func Summarize(results []ReconciliationResult) ReconciliationSummary {
	s := ReconciliationSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.IsMatched:
			s.Matched++
		case r.Confidence == ConfidencePartial:
			s.Partial++
		default:
			s.Unmatched++
		}
	}
	return s
}
