package service

import (
	"fmt"
	"time"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/parser"
	"cardpay-recon/internal/repository"
	"cardpay-recon/pkg/logger"
)

type BankTransactionService interface {
	Create(tx *domain.BankTransaction) error
	BulkCreate(transactions []domain.BankTransaction) error
	// ImportCSV streams a bank statement export into the store and returns
	// the number of imported rows.
	ImportCSV(filePath string) (int, error)
	FindByDateRange(start, end time.Time) ([]domain.BankTransaction, error)
}

type bankTransactionService struct {
	repo      repository.BankTransactionRepository
	batchSize int
}

func NewBankTransactionService(repo repository.BankTransactionRepository, batchSize int) BankTransactionService {
	return &bankTransactionService{repo: repo, batchSize: batchSize}
}

func (s *bankTransactionService) Create(tx *domain.BankTransaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return s.repo.Create(tx)
}

func (s *bankTransactionService) BulkCreate(transactions []domain.BankTransaction) error {
	return s.repo.BulkCreate(transactions)
}

func (s *bankTransactionService) ImportCSV(filePath string) (int, error) {
	p := parser.NewCSVBankTransactionParser()
	imported := 0

	err := p.Parse(filePath, s.batchSize, func(batch []domain.BankTransaction) error {
		if err := s.repo.BulkCreate(batch); err != nil {
			return err
		}
		imported += len(batch)
		return nil
	})
	if err != nil {
		return imported, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"file":     filePath,
		"imported": imported,
	}).Info("Bank transaction import completed")

	return imported, nil
}

func (s *bankTransactionService) FindByDateRange(start, end time.Time) ([]domain.BankTransaction, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start date cannot be after end date")
	}
	return s.repo.FindByDateRange(start, end)
}
