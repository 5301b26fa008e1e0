package repository

import (
	"database/sql"
	"fmt"

	"cardpay-recon/internal/domain"
	"cardpay-recon/pkg/logger"
)

// PaymentStatusRepository is the append-only status-record store. Save never
// updates a prior record; every status change inserts a new row keyed by
// record id.
type PaymentStatusRepository interface {
	Save(record *domain.PaymentStatusRecord) error
	FindLatestByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusRecord, error)
	// FindAllByStatus returns the records that are currently the newest for
	// their card summary and carry the given status.
	FindAllByStatus(status domain.PaymentStatus) ([]domain.PaymentStatusRecord, error)
	FindHistoryByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusHistory, error)
}

type paymentStatusRepository struct {
	db *sql.DB
}

func NewPaymentStatusRepository(db *sql.DB) PaymentStatusRepository {
	return &paymentStatusRepository{db: db}
}

const statusRecordColumns = `
	id, card_summary_id, status, previous_status, updated_at,
	updated_by, reason, reconciliation_id, notes, created_at
`

func (r *paymentStatusRepository) Save(record *domain.PaymentStatusRecord) error {
	query := `
		INSERT INTO payment_status_records (
			id, card_summary_id, status, previous_status, updated_at,
			updated_by, reason, reconciliation_id, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		record.ID,
		record.CardSummaryID,
		record.Status,
		record.PreviousStatus,
		record.UpdatedAt,
		record.UpdatedBy,
		record.Reason,
		record.ReconciliationID,
		record.Notes,
		record.CreatedAt,
	)

	if err != nil {
		logger.GetLogger().WithError(err).WithField("card_summary_id", record.CardSummaryID).Error("Failed to save status record")
		return err
	}

	return nil
}

func (r *paymentStatusRepository) FindLatestByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusRecord, error) {
	query := `
		SELECT ` + statusRecordColumns + `
		FROM payment_status_records
		WHERE card_summary_id = $1
		ORDER BY updated_at DESC, created_at DESC
		LIMIT 1
	`

	record, err := r.scanOne(r.db.QueryRow(query, cardSummaryID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("status record for summary %s: %w", cardSummaryID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get status record")
		return nil, err
	}

	return record, nil
}

func (r *paymentStatusRepository) FindAllByStatus(status domain.PaymentStatus) ([]domain.PaymentStatusRecord, error) {
	query := `
		SELECT ` + statusRecordColumns + `
		FROM (
			SELECT DISTINCT ON (card_summary_id) ` + statusRecordColumns + `
			FROM payment_status_records
			ORDER BY card_summary_id, updated_at DESC, created_at DESC
		) latest
		WHERE status = $1
		ORDER BY updated_at
	`

	rows, err := r.db.Query(query, status)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("status", status).Error("Failed to query status records")
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentStatusRecord
	for rows.Next() {
		var rec domain.PaymentStatusRecord
		if err := r.scanInto(rows, &rec); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan status record")
			continue
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *paymentStatusRepository) FindHistoryByCardSummaryID(cardSummaryID string) (*domain.PaymentStatusHistory, error) {
	query := `
		SELECT ` + statusRecordColumns + `
		FROM payment_status_records
		WHERE card_summary_id = $1
		ORDER BY updated_at, created_at
	`

	rows, err := r.db.Query(query, cardSummaryID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query status history")
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentStatusRecord
	for rows.Next() {
		var rec domain.PaymentStatusRecord
		if err := r.scanInto(rows, &rec); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan status record")
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return domain.NewPaymentStatusHistory(cardSummaryID, records)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *paymentStatusRepository) scanOne(row rowScanner) (*domain.PaymentStatusRecord, error) {
	var rec domain.PaymentStatusRecord
	if err := r.scanInto(row, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *paymentStatusRepository) scanInto(row rowScanner, rec *domain.PaymentStatusRecord) error {
	var previousStatus sql.NullString
	err := row.Scan(
		&rec.ID,
		&rec.CardSummaryID,
		&rec.Status,
		&previousStatus,
		&rec.UpdatedAt,
		&rec.UpdatedBy,
		&rec.Reason,
		&rec.ReconciliationID,
		&rec.Notes,
		&rec.CreatedAt,
	)
	if err != nil {
		return err
	}
	if previousStatus.Valid {
		prev := domain.PaymentStatus(previousStatus.String)
		rec.PreviousStatus = &prev
	}
	return nil
}
