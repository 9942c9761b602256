package service

import (
	"context"
	"fmt"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

var (
	MinDeposit = domain.FromNaira(100)
	MaxDeposit = domain.FromNaira(1_000_000)
)

type depositService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	gateways   map[domain.PaymentGateway]bool
}

func NewDepositService(userRepo repository.UserRepository, ledgerRepo repository.LedgerRepository, gateways ...domain.PaymentGateway) DepositService {
	enabled := make(map[domain.PaymentGateway]bool, len(gateways))
	for _, g := range gateways {
		if g != domain.GatewayBalance {
			enabled[g] = true
		}
	}
	return &depositService{userRepo: userRepo, ledgerRepo: ledgerRepo, gateways: enabled}
}

// InitiateDeposit records the pending transaction before the client is sent to
// the gateway, so the webhook always finds its reference.
func (s *depositService) InitiateDeposit(ctx context.Context, userID string, amount domain.Kobo, gw string) (*domain.Transaction, error) {
	logger.EnterMethod("depositService.InitiateDeposit", "user_id", userID, "amount", amount, "gateway", gw)

	if amount < MinDeposit || amount > MaxDeposit {
		err := fmt.Errorf("%w: deposits must be between %s and %s", domain.ErrInvalidAmount, MinDeposit, MaxDeposit)
		logger.ExitMethodWithError("depositService.InitiateDeposit", err)
		return nil, err
	}
	method, err := domain.ParsePaymentGateway(gw)
	if err != nil || !s.gateways[method] {
		err = fmt.Errorf("%w: %q", domain.ErrUnsupportedGateway, gw)
		logger.ExitMethodWithError("depositService.InitiateDeposit", err)
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.ExitMethodWithError("depositService.InitiateDeposit", err)
		return nil, err
	}

	tx := &domain.Transaction{
		UserID:         userID,
		Amount:         amount,
		Type:           domain.TransactionTypeDeposit,
		Status:         domain.StatusPending,
		LocationID:     user.LocationID,
		PaymentGateway: method,
	}
	if err := createWithReference(ctx, s.ledgerRepo, tx); err != nil {
		logger.ExitMethodWithError("depositService.InitiateDeposit", err)
		return nil, err
	}
	logger.ExitMethod("depositService.InitiateDeposit", "reference", tx.Reference)
	return tx, nil
}
