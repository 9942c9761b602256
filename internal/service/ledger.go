package service

import (
	"context"
	"fmt"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/repository"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
}

func NewLedgerService(ledgerRepo repository.LedgerRepository) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (domain.Kobo, error) {
	return s.ledgerRepo.GetBalance(ctx, userID)
}

func (s *ledgerService) GetTransactions(ctx context.Context, userID string, page, pageSize int32) ([]domain.Transaction, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return s.ledgerRepo.ListByUser(ctx, userID, pageSize, offset)
}

func (s *ledgerService) GetTransaction(ctx context.Context, userID, reference string) (*domain.Transaction, error) {
	tx, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotOwner, reference)
	}
	return tx, nil
}

func (s *ledgerService) ListByStatus(ctx context.Context, status domain.TransactionStatus, limit int32) ([]domain.Transaction, error) {
	return s.ledgerRepo.ListByStatus(ctx, status, now(), limit)
}
