package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cardpay-recon/internal/billing"
	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/repository"
)

type BillingSummaryService interface {
	// Create derives the closing and payment dates from the card's cycle
	// configuration and persists the summary.
	Create(cardID, cardName, billingMonth string, closingDay, paymentDay int, netPaymentAmount decimal.Decimal, transactionIDs []string) (*domain.BillingSummary, error)
	Get(cardID, billingMonth string) (*domain.BillingSummary, error)
	// BillingMonthFor maps a raw transaction date to its billing month under
	// the given closing-day rule.
	BillingMonthFor(transactionDate time.Time, closingDay int) (string, error)
}

type billingSummaryService struct {
	repo repository.BillingSummaryRepository
}

func NewBillingSummaryService(repo repository.BillingSummaryRepository) BillingSummaryService {
	return &billingSummaryService{repo: repo}
}

func (s *billingSummaryService) Create(cardID, cardName, billingMonth string, closingDay, paymentDay int, netPaymentAmount decimal.Decimal, transactionIDs []string) (*domain.BillingSummary, error) {
	if closingDay < 0 || closingDay > 31 {
		return nil, fmt.Errorf("closing day must be 0-31, got %d", closingDay)
	}
	if paymentDay < 1 || paymentDay > 31 {
		return nil, fmt.Errorf("payment day must be 1-31, got %d", paymentDay)
	}
	if !domain.ValidBillingMonth(billingMonth) {
		return nil, fmt.Errorf("invalid billing month %q: want YYYY-MM", billingMonth)
	}

	closingDate := billing.CalculateClosingDate(billingMonth, closingDay)
	paymentDate := billing.CalculatePaymentDate(closingDate, paymentDay)

	summary, err := domain.NewBillingSummary(
		uuid.New().String(),
		cardID,
		cardName,
		billingMonth,
		closingDate,
		paymentDate,
		netPaymentAmount,
		transactionIDs,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *billingSummaryService) Get(cardID, billingMonth string) (*domain.BillingSummary, error) {
	return s.repo.FindByCardAndMonth(cardID, billingMonth)
}

func (s *billingSummaryService) BillingMonthFor(transactionDate time.Time, closingDay int) (string, error) {
	if closingDay < 0 || closingDay > 31 {
		return "", fmt.Errorf("closing day must be 0-31, got %d", closingDay)
	}
	return billing.DetermineBillingMonth(transactionDate, closingDay), nil
}
