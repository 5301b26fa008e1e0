// Package billing implements billing-period arithmetic for card billing
// cycles: mapping transaction dates to billing months and deriving closing
// and payment dates from a card's cycle configuration.
package billing

import (
	"fmt"
	"time"
)

// EndOfMonth is the closing-day sentinel: both 0 and 31 mean the cycle
// closes on the last day of the month.
const EndOfMonth = 0

// DetermineBillingMonth maps a raw transaction date to its YYYY-MM billing
// month under the card's closing-day rule. Inputs are assumed pre-validated
// (closingDay in 0..31).
func DetermineBillingMonth(transactionDate time.Time, closingDay int) string {
	year, month, day := transactionDate.Date()

	if closingDay == EndOfMonth || closingDay == 31 {
		return fmt.Sprintf("%04d-%02d", year, int(month))
	}

	// A configured 29 or 30 degrades gracefully in shorter months.
	effective := closingDay
	if last := lastDayOfMonth(year, month); effective > last {
		effective = last
	}

	if day <= effective {
		return fmt.Sprintf("%04d-%02d", year, int(month))
	}

	// Past the closing day: the charge rolls into the next cycle.
	next := time.Date(year, month, 1, 0, 0, 0, 0, transactionDate.Location()).AddDate(0, 1, 0)
	return fmt.Sprintf("%04d-%02d", next.Year(), int(next.Month()))
}

// CalculateClosingDate returns the actual closing date within billingMonth
// (YYYY-MM) for the given closing day.
func CalculateClosingDate(billingMonth string, closingDay int) time.Time {
	t, err := time.Parse("2006-01", billingMonth)
	if err != nil {
		// Inputs are validated upstream; a malformed month here is a
		// programming error.
		panic(fmt.Sprintf("billing: malformed billing month %q", billingMonth))
	}
	year, month := t.Year(), t.Month()

	day := closingDay
	last := lastDayOfMonth(year, month)
	if day == EndOfMonth || day == 31 || day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CalculatePaymentDate returns the payment date, which always falls in the
// month after the closing date. paymentDay is clamped to that month's last
// day (day 31 in February pays on the 28th or 29th).
func CalculatePaymentDate(closingDate time.Time, paymentDay int) time.Time {
	first := time.Date(closingDate.Year(), closingDate.Month(), 1, 0, 0, 0, 0, closingDate.Location())
	next := first.AddDate(0, 1, 0)

	day := paymentDay
	if last := lastDayOfMonth(next.Year(), next.Month()); day > last {
		day = last
	}
	return time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, closingDate.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
