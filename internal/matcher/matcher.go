// Package matcher reconciles a card's monthly billing summary against
// externally observed bank transactions, producing a single graded result.
package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cardpay-recon/internal/billing"
	"cardpay-recon/internal/domain"
	"cardpay-recon/pkg/logger"
)

// BusinessDayWindow is the half-width, in business days, of the search
// window around the payment date.
const BusinessDayWindow = 3

// Matcher is a pure matching engine: no internal state, safe for concurrent
// use, identical inputs always yield identical results.
type Matcher struct{}

func New() *Matcher {
	return &Matcher{}
}

// Window returns the inclusive calendar date range searched for a payment
// date: paymentDate plus/minus three business days.
func (m *Matcher) Window(paymentDate time.Time) (start, end time.Time) {
	return billing.AddBusinessDays(paymentDate, -BusinessDayWindow),
		billing.AddBusinessDays(paymentDate, BusinessDayWindow)
}

// Match runs the three filter stages (date window, exact amount, description
// keywords) and grades the outcome. Two or more equally good candidates
// yield *domain.AmbiguousMatchError rather than a silent pick.
func (m *Matcher) Match(summary *domain.BillingSummary, candidates []domain.BankTransaction) (*domain.ReconciliationResult, error) {
	start, end := m.Window(summary.PaymentDate)

	inWindow := filterByDateRange(candidates, start, end)
	amountMatched := filterByAmount(inWindow, summary.NetPaymentAmount)

	keywords := keywordsForCard(summary.CardName)
	descMatched := filterByDescription(amountMatched, keywords)

	logger.GetLogger().WithFields(map[string]interface{}{
		"card_summary_id": summary.ID,
		"candidates":      len(candidates),
		"in_window":       len(inWindow),
		"amount_matched":  len(amountMatched),
		"desc_matched":    len(descMatched),
	}).Debug("Matcher filter stages")

	switch {
	case len(descMatched) == 1:
		return domain.NewMatchedResult(summary.ID, descMatched[0].ID, descMatched[0].Date)

	case len(descMatched) > 1:
		return nil, ambiguous(summary.ID, descMatched)

	case len(amountMatched) > 0:
		return m.partialMatch(summary, amountMatched)

	default:
		return m.noMatch(summary, inWindow, keywords)
	}
}

// partialMatch handles amount-and-date hits whose descriptions did not
// reference the card: pick the candidate closest to the payment date, or
// fail as ambiguous when two or more tie on that distance.
func (m *Matcher) partialMatch(summary *domain.BillingSummary, amountMatched []domain.BankTransaction) (*domain.ReconciliationResult, error) {
	best := 0
	bestDist := absInt(billing.BusinessDaysBetween(summary.PaymentDate, amountMatched[0].Date))
	tied := []domain.BankTransaction{amountMatched[0]}

	for i := 1; i < len(amountMatched); i++ {
		dist := absInt(billing.BusinessDaysBetween(summary.PaymentDate, amountMatched[i].Date))
		switch {
		case dist < bestDist:
			best, bestDist = i, dist
			tied = []domain.BankTransaction{amountMatched[i]}
		case dist == bestDist:
			tied = append(tied, amountMatched[i])
		}
	}

	if len(tied) > 1 {
		return nil, ambiguous(summary.ID, tied)
	}

	chosen := amountMatched[best]
	disc, err := domain.NewDiscrepancy(
		decimal.Zero,
		billing.BusinessDaysBetween(summary.PaymentDate, chosen.Date),
		false,
		"amount and date matched but description did not",
	)
	if err != nil {
		return nil, err
	}
	return domain.NewUnmatchedResult(summary.ID, domain.ConfidencePartial, disc)
}

// noMatch builds the zero-confidence result: report the closest-amount
// transaction in the window, or the full unmatched amount when the window
// is empty.
func (m *Matcher) noMatch(summary *domain.BillingSummary, inWindow []domain.BankTransaction, keywords []string) (*domain.ReconciliationResult, error) {
	if len(inWindow) == 0 {
		disc, err := domain.NewDiscrepancy(
			summary.NetPaymentAmount,
			0,
			false,
			"no transaction found in payment date window",
		)
		if err != nil {
			return nil, err
		}
		return domain.NewUnmatchedResult(summary.ID, domain.ConfidenceNone, disc)
	}

	closest := inWindow[0]
	closestDiff := summary.NetPaymentAmount.Sub(inWindow[0].Amount).Abs()
	for _, tx := range inWindow[1:] {
		if diff := summary.NetPaymentAmount.Sub(tx.Amount).Abs(); diff.LessThan(closestDiff) {
			closest, closestDiff = tx, diff
		}
	}

	dateDiff := billing.BusinessDaysBetween(summary.PaymentDate, closest.Date)
	disc, err := domain.NewDiscrepancy(
		closestDiff,
		dateDiff,
		descriptionMatches(closest.Description, keywords),
		fmt.Sprintf("no amount match in window: closest transaction %s differs by %s yen (%d business days from payment date)",
			closest.ID, closestDiff.String(), dateDiff),
	)
	if err != nil {
		return nil, err
	}
	return domain.NewUnmatchedResult(summary.ID, domain.ConfidenceNone, disc)
}

func filterByDateRange(txs []domain.BankTransaction, start, end time.Time) []domain.BankTransaction {
	filtered := make([]domain.BankTransaction, 0)
	for _, tx := range txs {
		d := dateOnly(tx.Date)
		if !d.Before(dateOnly(start)) && !d.After(dateOnly(end)) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func filterByAmount(txs []domain.BankTransaction, amount decimal.Decimal) []domain.BankTransaction {
	filtered := make([]domain.BankTransaction, 0)
	for _, tx := range txs {
		if tx.Amount.Equal(amount) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func filterByDescription(txs []domain.BankTransaction, keywords []string) []domain.BankTransaction {
	filtered := make([]domain.BankTransaction, 0)
	for _, tx := range txs {
		if descriptionMatches(tx.Description, keywords) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func ambiguous(cardSummaryID string, txs []domain.BankTransaction) *domain.AmbiguousMatchError {
	candidates := make([]domain.MatchCandidate, len(txs))
	for i, tx := range txs {
		candidates[i] = domain.MatchCandidate{
			TransactionID: tx.ID,
			Date:          tx.Date,
			Amount:        tx.Amount,
			Description:   tx.Description,
		}
	}
	return &domain.AmbiguousMatchError{CardSummaryID: cardSummaryID, Candidates: candidates}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
