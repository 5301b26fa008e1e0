package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// billingMonthPattern matches the YYYY-MM billing period key.
var billingMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidBillingMonth reports whether s is a well-formed YYYY-MM period.
func ValidBillingMonth(s string) bool {
	return billingMonthPattern.MatchString(s)
}

// BillingSummary is a card's monthly billing statement, produced upstream
// and consumed read-only by the matcher and the scheduler. Amounts are
// whole yen.
type BillingSummary struct {
	ID               string          `json:"id" db:"id"`
	CardID           string          `json:"card_id" db:"card_id"`
	CardName         string          `json:"card_name" db:"card_name"`
	BillingMonth     string          `json:"billing_month" db:"billing_month"`
	ClosingDate      time.Time       `json:"closing_date" db:"closing_date"`
	PaymentDate      time.Time       `json:"payment_date" db:"payment_date"`
	NetPaymentAmount decimal.Decimal `json:"net_payment_amount" db:"net_payment_amount"`
	TransactionIDs   []string        `json:"transaction_ids" db:"transaction_ids"`
}

// NewBillingSummary builds a validated summary. Invalid instances are
// unobservable: violations fail here, not later.
func NewBillingSummary(id, cardID, cardName, billingMonth string, closingDate, paymentDate time.Time, netPaymentAmount decimal.Decimal, transactionIDs []string) (*BillingSummary, error) {
	s := &BillingSummary{
		ID:               id,
		CardID:           cardID,
		CardName:         cardName,
		BillingMonth:     billingMonth,
		ClosingDate:      closingDate,
		PaymentDate:      paymentDate,
		NetPaymentAmount: netPaymentAmount,
		TransactionIDs:   transactionIDs,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BillingSummary) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("billing summary id is required")
	}
	if s.CardID == "" {
		return fmt.Errorf("card id is required")
	}
	if s.CardName == "" {
		return fmt.Errorf("card name is required")
	}
	if !ValidBillingMonth(s.BillingMonth) {
		return fmt.Errorf("invalid billing month %q: want YYYY-MM", s.BillingMonth)
	}
	if s.ClosingDate.IsZero() {
		return fmt.Errorf("closing date is required")
	}
	if s.PaymentDate.IsZero() {
		return fmt.Errorf("payment date is required")
	}
	if !s.NetPaymentAmount.IsInteger() {
		return fmt.Errorf("net payment amount must be whole yen, got %s", s.NetPaymentAmount)
	}
	if s.NetPaymentAmount.IsNegative() {
		return fmt.Errorf("net payment amount must be non-negative, got %s", s.NetPaymentAmount)
	}
	return nil
}

// BankTransaction is an externally observed bank-account movement. Read-only
// input to the matcher.
type BankTransaction struct {
	ID          string          `json:"id" db:"id"`
	Date        time.Time       `json:"date" db:"date"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
}

func NewBankTransaction(id string, date time.Time, amount decimal.Decimal, description string) (*BankTransaction, error) {
	tx := &BankTransaction{
		ID:          id,
		Date:        date,
		Amount:      amount,
		Description: description,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func (t *BankTransaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("bank transaction id is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("bank transaction date is required")
	}
	if !t.Amount.IsInteger() {
		return fmt.Errorf("bank transaction amount must be whole yen, got %s", t.Amount)
	}
	return nil
}
