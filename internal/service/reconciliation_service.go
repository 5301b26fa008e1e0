package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/matcher"
	"cardpay-recon/internal/repository"
	"cardpay-recon/pkg/logger"
)

type ReconciliationService interface {
	// Reconcile runs the matcher for one card and billing month and upserts
	// the resulting aggregate. Only meaningful in arrears: a payment date
	// still in the future is rejected.
	Reconcile(cardID, billingMonth string) (*domain.Reconciliation, error)
	Get(cardID, billingMonth string) (*domain.Reconciliation, error)
}

type reconciliationService struct {
	summaryRepo repository.BillingSummaryRepository
	bankRepo    repository.BankTransactionRepository
	reconRepo   repository.ReconciliationRepository
	engine      *matcher.Matcher
	now         func() time.Time
}

func NewReconciliationService(
	summaryRepo repository.BillingSummaryRepository,
	bankRepo repository.BankTransactionRepository,
	reconRepo repository.ReconciliationRepository,
	now func() time.Time,
) ReconciliationService {
	if now == nil {
		now = time.Now
	}
	return &reconciliationService{
		summaryRepo: summaryRepo,
		bankRepo:    bankRepo,
		reconRepo:   reconRepo,
		engine:      matcher.New(),
		now:         now,
	}
}

func (s *reconciliationService) Reconcile(cardID, billingMonth string) (*domain.Reconciliation, error) {
	if !domain.ValidBillingMonth(billingMonth) {
		return nil, fmt.Errorf("invalid billing month %q: want YYYY-MM", billingMonth)
	}

	summary, err := s.summaryRepo.FindByCardAndMonth(cardID, billingMonth)
	if err != nil {
		return nil, err
	}

	today := dateOnly(s.now())
	if dateOnly(summary.PaymentDate).After(today) {
		return nil, fmt.Errorf("payment date %s for card %s month %s: %w",
			summary.PaymentDate.Format("2006-01-02"), cardID, billingMonth, domain.ErrFutureDate)
	}

	start, end := s.engine.Window(summary.PaymentDate)
	candidates, err := s.bankRepo.FindByDateRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank transactions: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"card_id":       cardID,
		"billing_month": billingMonth,
		"window_start":  start.Format("2006-01-02"),
		"window_end":    end.Format("2006-01-02"),
		"candidates":    len(candidates),
	}).Info("Starting reconciliation")

	result, err := s.engine.Match(summary, candidates)
	if err != nil {
		// Ambiguous matches surface with their tied candidates for manual
		// resolution.
		return nil, err
	}

	now := s.now()
	results := []domain.ReconciliationResult{*result}
	rec := &domain.Reconciliation{
		ID:           uuid.New().String(),
		CardID:       cardID,
		BillingMonth: billingMonth,
		Status:       domain.StatusFromResults(results),
		ExecutedAt:   now,
		Results:      results,
		Summary:      domain.Summarize(results),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Upsert keyed by card+month; a pre-existing row keeps its id and
	// created_at. Concurrent runs are last-write-wins.
	if err := s.reconRepo.Save(rec); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"reconciliation_id": rec.ID,
		"status":            rec.Status,
		"confidence":        result.Confidence,
	}).Info("Reconciliation completed")

	return rec, nil
}

func (s *reconciliationService) Get(cardID, billingMonth string) (*domain.Reconciliation, error) {
	return s.reconRepo.FindByCardAndMonth(cardID, billingMonth)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
