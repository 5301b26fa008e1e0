package service

import (
	"errors"
	"fmt"
	"time"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/repository"
	"cardpay-recon/pkg/logger"
)

type PaymentStatusService interface {
	// Initialize creates the first PENDING record for a billing summary.
	// Calling it again for the same summary returns the existing latest
	// record instead of appending a duplicate.
	Initialize(cardSummaryID string) (*domain.PaymentStatusRecord, error)
	Update(cardSummaryID string, target domain.PaymentStatus, updatedBy domain.UpdatedBy, opts domain.TransitionOptions) (*domain.PaymentStatusRecord, error)
	Latest(cardSummaryID string) (*domain.PaymentStatusRecord, error)
	History(cardSummaryID string) (*domain.PaymentStatusHistory, error)
}

type paymentStatusService struct {
	statusRepo  repository.PaymentStatusRepository
	summaryRepo repository.BillingSummaryRepository
	now         func() time.Time
}

func NewPaymentStatusService(
	statusRepo repository.PaymentStatusRepository,
	summaryRepo repository.BillingSummaryRepository,
	now func() time.Time,
) PaymentStatusService {
	if now == nil {
		now = time.Now
	}
	return &paymentStatusService{
		statusRepo:  statusRepo,
		summaryRepo: summaryRepo,
		now:         now,
	}
}

func (s *paymentStatusService) Initialize(cardSummaryID string) (*domain.PaymentStatusRecord, error) {
	existing, err := s.statusRepo.FindLatestByCardSummaryID(cardSummaryID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	summaries, err := s.summaryRepo.FindByIDs([]string{cardSummaryID})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("billing summary %s: %w", cardSummaryID, domain.ErrNotFound)
	}

	record, err := domain.NewInitialStatusRecord(cardSummaryID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.statusRepo.Save(record); err != nil {
		return nil, err
	}

	logger.GetLogger().WithField("card_summary_id", cardSummaryID).Info("Initialized payment status")
	return record, nil
}

func (s *paymentStatusService) Update(cardSummaryID string, target domain.PaymentStatus, updatedBy domain.UpdatedBy, opts domain.TransitionOptions) (*domain.PaymentStatusRecord, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown payment status %q", target)
	}

	latest, err := s.statusRepo.FindLatestByCardSummaryID(cardSummaryID)
	if err != nil {
		return nil, err
	}

	next, err := latest.TransitionTo(target, updatedBy, opts, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.statusRepo.Save(next); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"card_summary_id": cardSummaryID,
		"from":            latest.Status,
		"to":              target,
		"updated_by":      updatedBy,
	}).Info("Payment status updated")

	return next, nil
}

func (s *paymentStatusService) Latest(cardSummaryID string) (*domain.PaymentStatusRecord, error) {
	return s.statusRepo.FindLatestByCardSummaryID(cardSummaryID)
}

func (s *paymentStatusService) History(cardSummaryID string) (*domain.PaymentStatusHistory, error) {
	return s.statusRepo.FindHistoryByCardSummaryID(cardSummaryID)
}
