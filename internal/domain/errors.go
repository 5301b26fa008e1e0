package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound signals that a billing summary, status record or
	// reconciliation does not exist for the requested key.
	ErrNotFound = errors.New("not found")

	// ErrFutureDate signals a reconciliation attempt before the payment
	// date has passed. Reconciliation only makes sense in arrears.
	ErrFutureDate = errors.New("payment date is in the future")
)

// MatchCandidate describes one of several equally plausible bank
// transactions in an ambiguous match.
type MatchCandidate struct {
	TransactionID string          `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// AmbiguousMatchError is returned when two or more bank transactions are
// equally good candidates for the same card payment. The tie is surfaced
// for manual resolution, never broken silently.
type AmbiguousMatchError struct {
	CardSummaryID string
	Candidates    []MatchCandidate
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for summary %s: %d equally close candidates", e.CardSummaryID, len(e.Candidates))
}

// InvalidTransitionError is returned when a payment status change is not in
// the allowed transition table.
type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
