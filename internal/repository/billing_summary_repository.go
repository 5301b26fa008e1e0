package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"cardpay-recon/internal/domain"
	"cardpay-recon/pkg/logger"
)

// BillingSummaryRepository is the billing-summary lookup collaborator.
// Summaries are produced upstream; this side only ingests and reads them.
type BillingSummaryRepository interface {
	Create(summary *domain.BillingSummary) error
	FindByCardAndMonth(cardID, billingMonth string) (*domain.BillingSummary, error)
	// FindByIDs bulk-loads summaries in a single query. The scheduler uses
	// it to avoid one lookup per status record.
	FindByIDs(ids []string) ([]domain.BillingSummary, error)
}

type billingSummaryRepository struct {
	db *sql.DB
}

func NewBillingSummaryRepository(db *sql.DB) BillingSummaryRepository {
	return &billingSummaryRepository{db: db}
}

func (r *billingSummaryRepository) Create(summary *domain.BillingSummary) error {
	if err := summary.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO billing_summaries (
			id, card_id, card_name, billing_month, closing_date,
			payment_date, net_payment_amount, transaction_ids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		summary.ID,
		summary.CardID,
		summary.CardName,
		summary.BillingMonth,
		summary.ClosingDate,
		summary.PaymentDate,
		summary.NetPaymentAmount,
		pq.Array(summary.TransactionIDs),
	)

	if err != nil {
		logger.GetLogger().WithError(err).WithField("summary_id", summary.ID).Error("Failed to create billing summary")
		return err
	}

	return nil
}

func (r *billingSummaryRepository) FindByCardAndMonth(cardID, billingMonth string) (*domain.BillingSummary, error) {
	query := `
		SELECT id, card_id, card_name, billing_month, closing_date,
			   payment_date, net_payment_amount, transaction_ids
		FROM billing_summaries
		WHERE card_id = $1 AND billing_month = $2
	`

	var s domain.BillingSummary
	err := r.db.QueryRow(query, cardID, billingMonth).Scan(
		&s.ID,
		&s.CardID,
		&s.CardName,
		&s.BillingMonth,
		&s.ClosingDate,
		&s.PaymentDate,
		&s.NetPaymentAmount,
		pq.Array(&s.TransactionIDs),
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("billing summary for card %s month %s: %w", cardID, billingMonth, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get billing summary")
		return nil, err
	}

	return &s, nil
}

func (r *billingSummaryRepository) FindByIDs(ids []string) ([]domain.BillingSummary, error) {
	if len(ids) == 0 {
		return []domain.BillingSummary{}, nil
	}

	query := `
		SELECT id, card_id, card_name, billing_month, closing_date,
			   payment_date, net_payment_amount, transaction_ids
		FROM billing_summaries
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query billing summaries")
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.BillingSummary
	for rows.Next() {
		var s domain.BillingSummary
		err := rows.Scan(
			&s.ID,
			&s.CardID,
			&s.CardName,
			&s.BillingMonth,
			&s.ClosingDate,
			&s.PaymentDate,
			&s.NetPaymentAmount,
			pq.Array(&s.TransactionIDs),
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan billing summary")
			continue
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
