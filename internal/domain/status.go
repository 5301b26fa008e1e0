package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a card payment.
type PaymentStatus string

const (
	StatusPending         PaymentStatus = "PENDING"
	StatusProcessing      PaymentStatus = "PROCESSING"
	StatusPaid            PaymentStatus = "PAID"
	StatusOverdue         PaymentStatus = "OVERDUE"
	StatusPartial         PaymentStatus = "PARTIAL"
	StatusDisputed        PaymentStatus = "DISPUTED"
	StatusCancelled       PaymentStatus = "CANCELLED"
	StatusManualConfirmed PaymentStatus = "MANUAL_CONFIRMED"
)

// allowedTransitions is the full transition table. States absent from the
// map are terminal.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:    {StatusProcessing, StatusPartial, StatusCancelled, StatusManualConfirmed},
	StatusProcessing: {StatusPaid, StatusDisputed, StatusOverdue},
	StatusDisputed:   {StatusManualConfirmed},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusOverdue,
		StatusPartial, StatusDisputed, StatusCancelled, StatusManualConfirmed:
		return true
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s PaymentStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s. Empty for
// terminal states.
func (s PaymentStatus) AllowedTransitions() []PaymentStatus {
	targets := allowedTransitions[s]
	out := make([]PaymentStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransitionTo reports whether s -> target is an allowed edge.
// Self-transitions are never allowed.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if target == s {
		return false
	}
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// UpdatedBy identifies who drove a status change.
type UpdatedBy string

const (
	UpdatedBySystem UpdatedBy = "system"
	UpdatedByUser   UpdatedBy = "user"
)

func (u UpdatedBy) Valid() bool {
	return u == UpdatedBySystem || u == UpdatedByUser
}

// PaymentStatusRecord is one immutable entry in a payment's status history.
// A transition never mutates a record; it appends a new one linked by
// CardSummaryID.
type PaymentStatusRecord struct {
	ID               string         `json:"id" db:"id"`
	CardSummaryID    string         `json:"card_summary_id" db:"card_summary_id"`
	Status           PaymentStatus  `json:"status" db:"status"`
	PreviousStatus   *PaymentStatus `json:"previous_status,omitempty" db:"previous_status"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
	UpdatedBy        UpdatedBy      `json:"updated_by" db:"updated_by"`
	Reason           *string        `json:"reason,omitempty" db:"reason"`
	ReconciliationID *string        `json:"reconciliation_id,omitempty" db:"reconciliation_id"`
	Notes            *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// TransitionOptions carries the optional metadata of a status change.
type TransitionOptions struct {
	Reason           string
	Notes            string
	ReconciliationID string
}

// NewInitialStatusRecord creates the first record for a billing summary,
// defaulting to PENDING.
func NewInitialStatusRecord(cardSummaryID string, now time.Time) (*PaymentStatusRecord, error) {
	if cardSummaryID == "" {
		return nil, fmt.Errorf("card summary id is required")
	}
	return &PaymentStatusRecord{
		ID:            uuid.New().String(),
		CardSummaryID: cardSummaryID,
		Status:        StatusPending,
		UpdatedAt:     now,
		UpdatedBy:     UpdatedBySystem,
		CreatedAt:     now,
	}, nil
}

// TransitionTo validates the requested edge and returns a brand-new record
// with PreviousStatus set to the current status. The receiver is never
// modified. Invalid edges return *InvalidTransitionError and no record.
func (r *PaymentStatusRecord) TransitionTo(target PaymentStatus, updatedBy UpdatedBy, opts TransitionOptions, now time.Time) (*PaymentStatusRecord, error) {
	if !updatedBy.Valid() {
		return nil, fmt.Errorf("invalid updated_by %q", updatedBy)
	}
	if !r.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: r.Status, To: target}
	}

	prev := r.Status
	next := &PaymentStatusRecord{
		ID:             uuid.New().String(),
		CardSummaryID:  r.CardSummaryID,
		Status:         target,
		PreviousStatus: &prev,
		UpdatedAt:      now,
		UpdatedBy:      updatedBy,
		CreatedAt:      now,
	}
	if opts.Reason != "" {
		next.Reason = &opts.Reason
	}
	if opts.Notes != "" {
		next.Notes = &opts.Notes
	}
	if opts.ReconciliationID != "" {
		next.ReconciliationID = &opts.ReconciliationID
	}
	return next, nil
}

// PaymentStatusHistory is the chronological (ascending) status trail for one
// billing summary. Derived from storage, never persisted as its own row.
type PaymentStatusHistory struct {
	CardSummaryID string                `json:"card_summary_id"`
	Records       []PaymentStatusRecord `json:"records"`
}

// NewPaymentStatusHistory validates that every record belongs to
// cardSummaryID. Records are assumed already sorted ascending by UpdatedAt.
func NewPaymentStatusHistory(cardSummaryID string, records []PaymentStatusRecord) (*PaymentStatusHistory, error) {
	if cardSummaryID == "" {
		return nil, fmt.Errorf("card summary id is required")
	}
	for _, r := range records {
		if r.CardSummaryID != cardSummaryID {
			return nil, fmt.Errorf("history for %s contains record %s belonging to %s", cardSummaryID, r.ID, r.CardSummaryID)
		}
	}
	return &PaymentStatusHistory{CardSummaryID: cardSummaryID, Records: records}, nil
}

// LatestStatus returns the newest record. Fails on an empty history.
func (h *PaymentStatusHistory) LatestStatus() (*PaymentStatusRecord, error) {
	if len(h.Records) == 0 {
		return nil, fmt.Errorf("no status records for %s: %w", h.CardSummaryID, ErrNotFound)
	}
	return &h.Records[len(h.Records)-1], nil
}

// StatusAt returns the most recent record whose UpdatedAt is at or before t,
// or nil when every record postdates t.
func (h *PaymentStatusHistory) StatusAt(t time.Time) *PaymentStatusRecord {
	for i := len(h.Records) - 1; i >= 0; i-- {
		if !h.Records[i].UpdatedAt.After(t) {
			return &h.Records[i]
		}
	}
	return nil
}
