package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardpay-recon/internal/domain"
)

// Fixed clock: Monday 2025-03-10, mid-morning.
var today = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return today }

type fakeStatusRepo struct {
	mu       sync.Mutex
	byStatus map[domain.PaymentStatus][]domain.PaymentStatusRecord
	saved    []domain.PaymentStatusRecord
	listErr  error
	saveErr  map[string]error
}

func (f *fakeStatusRepo) Save(record *domain.PaymentStatusRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[record.CardSummaryID]; err != nil {
		return err
	}
	f.saved = append(f.saved, *record)
	return nil
}

func (f *fakeStatusRepo) FindLatestByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusRecord, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeStatusRepo) FindAllByStatus(status domain.PaymentStatus) ([]domain.PaymentStatusRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byStatus[status], nil
}

func (f *fakeStatusRepo) FindHistoryByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusHistory, error) {
	return domain.NewPaymentStatusHistory(cardSummaryID, nil)
}

type fakeSummaryRepo struct {
	summaries map[string]domain.BillingSummary
	findErr   error
}

func (f *fakeSummaryRepo) Create(*domain.BillingSummary) error { return nil }

func (f *fakeSummaryRepo) FindByCardAndMonth(cardID, billingMonth string) (*domain.BillingSummary, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSummaryRepo) FindByIDs(ids []string) ([]domain.BillingSummary, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]domain.BillingSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.summaries[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func statusRecord(cardSummaryID string, status domain.PaymentStatus) domain.PaymentStatusRecord {
	return domain.PaymentStatusRecord{
		ID:            "rec-" + cardSummaryID,
		CardSummaryID: cardSummaryID,
		Status:        status,
		UpdatedAt:     today.Add(-48 * time.Hour),
		UpdatedBy:     domain.UpdatedBySystem,
		CreatedAt:     today.Add(-48 * time.Hour),
	}
}

func summaryWithPaymentDate(id string, paymentDate time.Time) domain.BillingSummary {
	return domain.BillingSummary{
		ID:               id,
		CardID:           "card-" + id,
		CardName:         "楽天カード",
		BillingMonth:     "2025-02",
		ClosingDate:      paymentDate.AddDate(0, -1, 0),
		PaymentDate:      paymentDate,
		NetPaymentAmount: decimal.NewFromInt(10000),
	}
}

func TestProcessPendingPayments_ExactlyThreeDaysBefore(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusPending: {statusRecord("s1", domain.StatusPending)},
		},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		"s1": summaryWithPaymentDate("s1", today.AddDate(0, 0, 3)),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).ProcessPendingPayments()
	require.NoError(t, err)
	assert.Equal(t, PassResult{SuccessCount: 1, FailureCount: 0, TotalCandidates: 1}, result)

	require.Len(t, statusRepo.saved, 1)
	saved := statusRepo.saved[0]
	assert.Equal(t, domain.StatusProcessing, saved.Status)
	assert.Equal(t, domain.UpdatedBySystem, saved.UpdatedBy)
	require.NotNil(t, saved.Reason)
	assert.Equal(t, "3 days before payment date", *saved.Reason)
	require.NotNil(t, saved.PreviousStatus)
	assert.Equal(t, domain.StatusPending, *saved.PreviousStatus)
}

func TestProcessPendingPayments_FourDaysBeforeIsTooEarly(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusPending: {statusRecord("s1", domain.StatusPending)},
		},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		"s1": summaryWithPaymentDate("s1", today.AddDate(0, 0, 4)),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).ProcessPendingPayments()
	require.NoError(t, err)
	assert.Equal(t, PassResult{}, result)
	assert.Empty(t, statusRepo.saved)
}

func TestProcessOverduePayments_StrictlyPastGrace(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusProcessing: {
				statusRecord("late", domain.StatusProcessing),
				statusRecord("edge", domain.StatusProcessing),
			},
		},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		// Eight days past: overdue. Exactly seven days past: not yet.
		"late": summaryWithPaymentDate("late", today.AddDate(0, 0, -8)),
		"edge": summaryWithPaymentDate("edge", today.AddDate(0, 0, -7)),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).ProcessOverduePayments()
	require.NoError(t, err)
	assert.Equal(t, PassResult{SuccessCount: 1, FailureCount: 0, TotalCandidates: 1}, result)

	require.Len(t, statusRepo.saved, 1)
	assert.Equal(t, "late", statusRepo.saved[0].CardSummaryID)
	assert.Equal(t, domain.StatusOverdue, statusRepo.saved[0].Status)
	require.NotNil(t, statusRepo.saved[0].Reason)
	assert.Equal(t, "7 days past payment date", *statusRepo.saved[0].Reason)
}

func TestRunPass_MissingSummarySkipped(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusPending: {
				statusRecord("known", domain.StatusPending),
				statusRecord("orphan", domain.StatusPending),
			},
		},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		"known": summaryWithPaymentDate("known", today),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).ProcessPendingPayments()
	require.NoError(t, err)
	assert.Equal(t, PassResult{SuccessCount: 1, FailureCount: 0, TotalCandidates: 1}, result)
}

func TestRunPass_FailureIsolation(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusPending: {
				statusRecord("ok", domain.StatusPending),
				statusRecord("broken", domain.StatusPending),
			},
		},
		saveErr: map[string]error{"broken": errors.New("write conflict")},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		"ok":     summaryWithPaymentDate("ok", today),
		"broken": summaryWithPaymentDate("broken", today),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).ProcessPendingPayments()
	require.NoError(t, err, "per-record failures never raise")
	assert.Equal(t, PassResult{SuccessCount: 1, FailureCount: 1, TotalCandidates: 2}, result)

	require.Len(t, statusRepo.saved, 1)
	assert.Equal(t, "ok", statusRepo.saved[0].CardSummaryID)
}

func TestRun_ListingErrorPropagates(t *testing.T) {
	statusRepo := &fakeStatusRepo{listErr: errors.New("db down")}
	summaryRepo := &fakeSummaryRepo{}

	_, err := New(statusRepo, summaryRepo, fixedNow).Run()
	assert.Error(t, err)
}

func TestRun_AggregatesBothPasses(t *testing.T) {
	statusRepo := &fakeStatusRepo{
		byStatus: map[domain.PaymentStatus][]domain.PaymentStatusRecord{
			domain.StatusPending:    {statusRecord("p1", domain.StatusPending)},
			domain.StatusProcessing: {statusRecord("o1", domain.StatusProcessing)},
		},
	}
	summaryRepo := &fakeSummaryRepo{summaries: map[string]domain.BillingSummary{
		"p1": summaryWithPaymentDate("p1", today.AddDate(0, 0, 2)),
		"o1": summaryWithPaymentDate("o1", today.AddDate(0, 0, -10)),
	}}

	result, err := New(statusRepo, summaryRepo, fixedNow).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pending.SuccessCount)
	assert.Equal(t, 1, result.Overdue.SuccessCount)
	assert.Equal(t, today, result.StartedAt)
}
