package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDetermineBillingMonth(t *testing.T) {
	tests := []struct {
		name            string
		transactionDate time.Time
		closingDay      int
		want            string
	}{
		{"day after closing rolls to next month", date(2025, 1, 16), 15, "2025-02"},
		{"closing day itself stays in month", date(2025, 1, 15), 15, "2025-01"},
		{"first of month before closing", date(2025, 1, 1), 15, "2025-01"},
		{"end-of-month cycle with 0", date(2025, 1, 31), 0, "2025-01"},
		{"end-of-month cycle with 31", date(2025, 1, 31), 31, "2025-01"},
		{"end-of-month cycle early in month", date(2025, 1, 2), 0, "2025-01"},
		{"year rollover", date(2024, 12, 20), 15, "2025-01"},
		{"configured 30 degrades in February", date(2025, 2, 28), 30, "2025-02"},
		{"configured 30 degrades in leap February", date(2024, 2, 29), 30, "2024-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineBillingMonth(tt.transactionDate, tt.closingDay))
		})
	}
}

func TestDetermineBillingMonth_EndOfMonthIgnoresDay(t *testing.T) {
	// For closing day 0 or 31 the billing month is always the
	// transaction's own month, whatever the day.
	for _, closingDay := range []int{0, 31} {
		for day := 1; day <= 31; day++ {
			d := date(2025, 1, day)
			assert.Equal(t, "2025-01", DetermineBillingMonth(d, closingDay))
		}
	}
}

func TestCalculateClosingDate(t *testing.T) {
	tests := []struct {
		name         string
		billingMonth string
		closingDay   int
		want         time.Time
	}{
		{"plain mid-month", "2025-01", 15, date(2025, 1, 15)},
		{"31 clamps to February", "2025-02", 31, date(2025, 2, 28)},
		{"31 clamps to leap February", "2024-02", 31, date(2024, 2, 29)},
		{"0 means end of month", "2025-04", 0, date(2025, 4, 30)},
		{"30 clamps to February", "2025-02", 30, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateClosingDate(tt.billingMonth, tt.closingDay))
		})
	}
}

func TestCalculatePaymentDate(t *testing.T) {
	tests := []struct {
		name        string
		closingDate time.Time
		paymentDay  int
		want        time.Time
	}{
		{"payment day clamps to short February", date(2025, 1, 31), 31, date(2025, 2, 28)},
		{"payment day clamps to leap February", date(2024, 1, 31), 31, date(2024, 2, 29)},
		{"plain following month", date(2025, 1, 15), 10, date(2025, 2, 10)},
		{"December closing pays in January", date(2024, 12, 25), 27, date(2025, 1, 27)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculatePaymentDate(tt.closingDate, tt.paymentDay))
		})
	}
}
