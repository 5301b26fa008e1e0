package repository

import (
	"database/sql"
	"time"

	"cardpay-recon/internal/domain"
	"cardpay-recon/pkg/logger"
)

// BankTransactionRepository is the bank-transaction source collaborator:
// externally observed account movements, ingested for the matcher to read.
type BankTransactionRepository interface {
	Create(tx *domain.BankTransaction) error
	BulkCreate(transactions []domain.BankTransaction) error
	FindByDateRange(start, end time.Time) ([]domain.BankTransaction, error)
}

type bankTransactionRepository struct {
	db *sql.DB
}

func NewBankTransactionRepository(db *sql.DB) BankTransactionRepository {
	return &bankTransactionRepository{db: db}
}

func (r *bankTransactionRepository) Create(tx *domain.BankTransaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO bank_transactions (id, date, amount, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(query, tx.ID, tx.Date, tx.Amount, tx.Description)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("transaction_id", tx.ID).Error("Failed to create bank transaction")
		return err
	}

	return nil
}

func (r *bankTransactionRepository) BulkCreate(transactions []domain.BankTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	dbTx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO bank_transactions (id, date, amount, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for _, tx := range transactions {
		if err := tx.Validate(); err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", tx.ID).Warn("Invalid bank transaction, skipping")
			continue
		}
		_, err = stmt.Exec(tx.ID, tx.Date, tx.Amount, tx.Description)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", tx.ID).Error("Failed to insert bank transaction")
			continue
		}
	}

	if err := dbTx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func (r *bankTransactionRepository) FindByDateRange(start, end time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT id, date, amount, description
		FROM bank_transactions
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`

	rows, err := r.db.Query(query, start, end)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query bank transactions")
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.BankTransaction
	for rows.Next() {
		var tx domain.BankTransaction
		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Amount, &tx.Description); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan bank transaction")
			continue
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}
