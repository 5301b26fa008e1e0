// Package scheduler advances payment statuses as a pure function of elapsed
// time relative to each summary's payment date. It never consults the
// matcher; reconciliation outcomes drive transitions elsewhere.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/repository"
	"cardpay-recon/pkg/logger"
)

const (
	// PENDING payments start PROCESSING three calendar days before the
	// payment date; PROCESSING payments go OVERDUE once seven calendar days
	// past it. These thresholds are calendar days while the matcher works
	// in business days; the mismatch is inherited behavior, kept as is.
	pendingLeadDays  = 3
	overdueGraceDays = 7

	pendingReason = "3 days before payment date"
	overdueReason = "7 days past payment date"
)

// PassResult reports one pass of the daily batch. TotalCandidates counts the
// records that were due for a transition attempt; each attempt lands in
// exactly one of the two counters.
type PassResult struct {
	SuccessCount    int `json:"success_count"`
	FailureCount    int `json:"failure_count"`
	TotalCandidates int `json:"total_candidates"`
}

// RunResult aggregates both passes of one scheduler run.
type RunResult struct {
	Pending   PassResult    `json:"pending_to_processing"`
	Overdue   PassResult    `json:"processing_to_overdue"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Scheduler runs the two daily status passes. The clock is injected so the
// passes stay deterministic under test; the trigger (cron, CLI, HTTP) lives
// outside.
type Scheduler struct {
	statusRepo  repository.PaymentStatusRepository
	summaryRepo repository.BillingSummaryRepository
	now         func() time.Time
}

func New(
	statusRepo repository.PaymentStatusRepository,
	summaryRepo repository.BillingSummaryRepository,
	now func() time.Time,
) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		statusRepo:  statusRepo,
		summaryRepo: summaryRepo,
		now:         now,
	}
}

// Run executes both passes sequentially. Listing failures propagate;
// per-record transition failures are isolated and only counted.
func (s *Scheduler) Run() (*RunResult, error) {
	start := s.now()

	pending, err := s.ProcessPendingPayments()
	if err != nil {
		return nil, fmt.Errorf("pending pass: %w", err)
	}

	overdue, err := s.ProcessOverduePayments()
	if err != nil {
		return nil, fmt.Errorf("overdue pass: %w", err)
	}

	result := &RunResult{
		Pending:   pending,
		Overdue:   overdue,
		StartedAt: start,
		Duration:  s.now().Sub(start),
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"pending_success": pending.SuccessCount,
		"pending_failure": pending.FailureCount,
		"overdue_success": overdue.SuccessCount,
		"overdue_failure": overdue.FailureCount,
		"duration_ms":     result.Duration.Milliseconds(),
	}).Info("Scheduler run completed")

	return result, nil
}

// ProcessPendingPayments moves PENDING records to PROCESSING once today is
// within three calendar days of the payment date.
func (s *Scheduler) ProcessPendingPayments() (PassResult, error) {
	return s.runPass(domain.StatusPending, domain.StatusProcessing, pendingReason,
		func(today, paymentDate time.Time) bool {
			return !today.Before(paymentDate.AddDate(0, 0, -pendingLeadDays))
		})
}

// ProcessOverduePayments moves PROCESSING records to OVERDUE once today is
// strictly more than seven calendar days past the payment date.
func (s *Scheduler) ProcessOverduePayments() (PassResult, error) {
	return s.runPass(domain.StatusProcessing, domain.StatusOverdue, overdueReason,
		func(today, paymentDate time.Time) bool {
			return today.After(paymentDate.AddDate(0, 0, overdueGraceDays))
		})
}

func (s *Scheduler) runPass(from, to domain.PaymentStatus, reason string, due func(today, paymentDate time.Time) bool) (PassResult, error) {
	var result PassResult

	records, err := s.statusRepo.FindAllByStatus(from)
	if err != nil {
		return result, fmt.Errorf("failed to list %s records: %w", from, err)
	}
	if len(records) == 0 {
		return result, nil
	}

	// One batched lookup for every summary in the pass.
	summaries, err := s.summaryRepo.FindByIDs(summaryIDs(records))
	if err != nil {
		return result, fmt.Errorf("failed to load billing summaries: %w", err)
	}
	byID := make(map[string]domain.BillingSummary, len(summaries))
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}

	today := dateOnly(s.now())

	var eligible []domain.PaymentStatusRecord
	for _, rec := range records {
		summary, ok := byID[rec.CardSummaryID]
		if !ok {
			logger.GetLogger().WithField("card_summary_id", rec.CardSummaryID).Warn("Billing summary not found, skipping record")
			continue
		}
		if due(today, dateOnly(summary.PaymentDate)) {
			eligible = append(eligible, rec)
		}
	}

	result.TotalCandidates = len(eligible)
	if len(eligible) == 0 {
		return result, nil
	}

	// Fan out, settle all, then inspect. A failed record (for example an
	// invalid transition racing a concurrent manual update) must not cancel
	// its siblings.
	type outcome struct {
		cardSummaryID string
		err           error
	}
	outcomes := make(chan outcome, len(eligible))

	var wg sync.WaitGroup
	for _, rec := range eligible {
		wg.Add(1)
		go func(rec domain.PaymentStatusRecord) {
			defer wg.Done()
			next, err := rec.TransitionTo(to, domain.UpdatedBySystem, domain.TransitionOptions{Reason: reason}, s.now())
			if err == nil {
				err = s.statusRepo.Save(next)
			}
			outcomes <- outcome{cardSummaryID: rec.CardSummaryID, err: err}
		}(rec)
	}
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			logger.GetLogger().WithError(o.err).WithFields(map[string]interface{}{
				"card_summary_id": o.cardSummaryID,
				"from":            from,
				"to":              to,
			}).Error("Failed to transition payment status")
			result.FailureCount++
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

func summaryIDs(records []domain.PaymentStatusRecord) []string {
	seen := make(map[string]bool, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.CardSummaryID] {
			seen[rec.CardSummaryID] = true
			ids = append(ids, rec.CardSummaryID)
		}
	}
	return ids
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
