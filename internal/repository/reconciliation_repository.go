package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"cardpay-recon/internal/domain"
	"cardpay-recon/pkg/logger"
)

// ReconciliationRepository stores one reconciliation aggregate per
// card+billing-month. Save is an upsert on that key: a re-run replaces the
// status, timestamps and result rows but preserves the original id and
// created_at. The upsert is last-write-wins; concurrent runs for the same
// card/month race without an optimistic-concurrency token.
type ReconciliationRepository interface {
	FindByCardAndMonth(cardID, billingMonth string) (*domain.Reconciliation, error)
	Save(rec *domain.Reconciliation) error
}

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Save(rec *domain.Reconciliation) error {
	dbTx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer dbTx.Rollback()

	// On conflict the id and created_at columns are left untouched, so the
	// RETURNING clause reports the original identity of the aggregate.
	upsert := `
		INSERT INTO reconciliations (id, card_id, billing_month, status, executed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (card_id, billing_month) DO UPDATE
		SET status = EXCLUDED.status,
			executed_at = EXCLUDED.executed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRow(
		upsert,
		rec.ID,
		rec.CardID,
		rec.BillingMonth,
		rec.Status,
		rec.ExecutedAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to upsert reconciliation")
		return err
	}

	if _, err := dbTx.Exec(`DELETE FROM reconciliation_results WHERE reconciliation_id = $1`, rec.ID); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to clear reconciliation results")
		return err
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO reconciliation_results (
			reconciliation_id, position, is_matched, confidence, bank_transaction_id,
			card_summary_id, matched_at, amount_difference, date_difference,
			description_match, discrepancy_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for i, result := range rec.Results {
		var (
			amountDifference interface{}
			dateDifference   interface{}
			descriptionMatch interface{}
			reason           interface{}
		)
		if result.Discrepancy != nil {
			amountDifference = result.Discrepancy.AmountDifference
			dateDifference = result.Discrepancy.DateDifference
			descriptionMatch = result.Discrepancy.DescriptionMatch
			reason = result.Discrepancy.Reason
		}

		_, err = stmt.Exec(
			rec.ID,
			i,
			result.IsMatched,
			result.Confidence,
			result.BankTransactionID,
			result.CardSummaryID,
			result.MatchedAt,
			amountDifference,
			dateDifference,
			descriptionMatch,
			reason,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to insert reconciliation result")
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func (r *reconciliationRepository) FindByCardAndMonth(cardID, billingMonth string) (*domain.Reconciliation, error) {
	query := `
		SELECT id, card_id, billing_month, status, executed_at, created_at, updated_at
		FROM reconciliations
		WHERE card_id = $1 AND billing_month = $2
	`

	var rec domain.Reconciliation
	err := r.db.QueryRow(query, cardID, billingMonth).Scan(
		&rec.ID,
		&rec.CardID,
		&rec.BillingMonth,
		&rec.Status,
		&rec.ExecutedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reconciliation for card %s month %s: %w", cardID, billingMonth, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get reconciliation")
		return nil, err
	}

	results, err := r.loadResults(rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Results = results
	rec.Summary = domain.Summarize(results)

	return &rec, nil
}

func (r *reconciliationRepository) loadResults(reconciliationID string) ([]domain.ReconciliationResult, error) {
	query := `
		SELECT is_matched, confidence, bank_transaction_id, card_summary_id,
			   matched_at, amount_difference, date_difference, description_match,
			   discrepancy_reason
		FROM reconciliation_results
		WHERE reconciliation_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(query, reconciliationID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query reconciliation results")
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ReconciliationResult, 0)
	for rows.Next() {
		var (
			result           domain.ReconciliationResult
			amountDifference decimal.NullDecimal
			dateDifference   sql.NullInt64
			descriptionMatch sql.NullBool
			reason           sql.NullString
		)
		err := rows.Scan(
			&result.IsMatched,
			&result.Confidence,
			&result.BankTransactionID,
			&result.CardSummaryID,
			&result.MatchedAt,
			&amountDifference,
			&dateDifference,
			&descriptionMatch,
			&reason,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan reconciliation result")
			continue
		}

		if reason.Valid {
			result.Discrepancy = &domain.Discrepancy{
				AmountDifference: amountDifference.Decimal,
				DateDifference:   int(dateDifference.Int64),
				DescriptionMatch: descriptionMatch.Bool,
				Reason:           reason.String,
			}
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
