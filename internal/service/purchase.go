package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

type purchaseService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	reconciler ReconcileService
	gateways   map[domain.PaymentGateway]bool
	*fulfiller
}

// NewPurchaseService accepts card payments only through the listed gateways;
// balance purchases are always available.
func NewPurchaseService(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	inventory InventoryService,
	reconciler ReconcileService,
	notifier NotificationService,
	alerts AlertService,
	gateways ...domain.PaymentGateway,
) PurchaseService {
	enabled := map[domain.PaymentGateway]bool{domain.GatewayBalance: true}
	for _, g := range gateways {
		enabled[g] = true
	}
	return &purchaseService{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		reconciler: reconciler,
		gateways:   enabled,
		fulfiller: &fulfiller{
			ledgerRepo: ledgerRepo,
			inventory:  inventory,
			notifier:   notifier,
			alerts:     alerts,
		},
	}
}

func (s *purchaseService) PurchasePlan(ctx context.Context, userID, planName, paymentMethod string, amountPaid domain.Kobo) (*PurchaseResult, error) {
	logger.EnterMethod("purchaseService.PurchasePlan", "user_id", userID, "plan", planName, "method", paymentMethod, "amount", amountPaid)

	plan, err := domain.LookupPlan(planName)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}
	if amountPaid != plan.Price {
		err := fmt.Errorf("%w: %s costs %s, got %s", domain.ErrAmountMismatch, plan.Title, plan.Price, amountPaid)
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}
	method, err := domain.ParsePaymentGateway(paymentMethod)
	if err != nil || !s.gateways[method] {
		err = fmt.Errorf("%w: %q", domain.ErrUnsupportedGateway, paymentMethod)
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err, "user_id", userID)
		return nil, err
	}
	// Stock with no location counts every location, so it cannot gate here.
	if strings.TrimSpace(user.LocationID) == "" {
		err := fmt.Errorf("%w: %s", domain.ErrNoLocation, userID)
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}

	// Cheap pre-check so nobody pays for an empty pool. Claim still decides.
	stock, err := s.inventory.Stock(ctx, plan.Key(), user.LocationID)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}
	if stock.Unused == 0 {
		err := fmt.Errorf("%w: %s at location %s", domain.ErrNoVoucherAvailable, plan.Title, user.LocationID)
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}

	txType := domain.TransactionTypeDirectPayment
	if method == domain.GatewayBalance {
		txType = domain.TransactionTypeBalancePayment
	}
	tx := &domain.Transaction{
		UserID:         userID,
		Amount:         plan.Price,
		Type:           txType,
		Status:         domain.StatusPending,
		LocationID:     user.LocationID,
		PaymentGateway: method,
		Plan:           plan.Title,
	}
	if err := createWithReference(ctx, s.ledgerRepo, tx); err != nil {
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err)
		return nil, err
	}

	if method != domain.GatewayBalance {
		logger.ExitMethod("purchaseService.PurchasePlan", "reference", tx.Reference, "status", tx.Status)
		return resultOf(tx), nil
	}

	res, err := s.payFromBalance(ctx, tx)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.PurchasePlan", err, "reference", tx.Reference, "user_id", userID, "amount", tx.Amount)
		return res, err
	}
	logger.ExitMethod("purchaseService.PurchasePlan", "reference", tx.Reference, "status", res.Status)
	return res, nil
}

// payFromBalance debits, claims and completes. A failed claim refunds the
// debit in the same atomic transition that fails the transaction.
func (s *purchaseService) payFromBalance(ctx context.Context, tx *domain.Transaction) (*PurchaseResult, error) {
	paid, err := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:    tx.Reference,
		From:         domain.StatusPending,
		To:           domain.StatusUnfulfilled,
		BalanceDelta: -tx.Amount,
		At:           now(),
	})
	if errors.Is(err, domain.ErrInsufficientBalance) {
		failed, ferr := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
			Reference:     tx.Reference,
			From:          domain.StatusPending,
			To:            domain.StatusFailed,
			FailureReason: reasonInsufficient,
			At:            now(),
		})
		if ferr != nil {
			logger.Error("Failed to close rejected balance purchase", "reference", tx.Reference, "error", ferr)
			return resultOf(tx), err
		}
		return resultOf(failed), err
	}
	if err != nil {
		return nil, fmt.Errorf("debit %s: %w", tx.Reference, err)
	}

	done, err := s.complete(ctx, paid)
	if err == nil {
		return resultOf(done), nil
	}
	if !errors.Is(err, domain.ErrNoVoucherAvailable) {
		// Unknown claim state: keep the debit and let an operator look.
		s.holdForOperator(ctx, paid, err.Error())
		return resultOf(paid), err
	}

	refunded, rerr := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:     tx.Reference,
		From:          domain.StatusUnfulfilled,
		To:            domain.StatusFailed,
		BalanceDelta:  tx.Amount,
		FailureReason: reasonNoVoucher,
		At:            now(),
	})
	if rerr != nil {
		logger.Error("Refund after empty pool failed", "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount, "error", rerr)
		s.holdForOperator(ctx, paid, "refund failed: "+rerr.Error())
		return resultOf(paid), err
	}
	logger.Info("Balance purchase refunded", "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount)
	s.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePurchase, string(domain.StatusFailed), tx.Amount,
		fmt.Sprintf("%s is out of stock. %s has been returned to your balance.", planTitle(tx.Plan), tx.Amount))
	return resultOf(refunded), err
}

func (s *purchaseService) CompletePurchase(ctx context.Context, userID, reference string) (*PurchaseResult, error) {
	tx, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotOwner, reference)
	}
	if !tx.Type.IsPurchase() {
		return nil, fmt.Errorf("%w: %s is a %s", domain.ErrInvalidTransition, reference, tx.Type)
	}
	if tx.Status != domain.StatusPending || tx.PaymentGateway == domain.GatewayBalance {
		return resultOf(tx), nil
	}

	outcome, err := s.reconciler.ReconcileReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	logger.Info("Purchase completion reconciled", "reference", reference, "user_id", userID, "outcome", outcome)

	tx, err = s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return resultOf(tx), nil
}

func (s *purchaseService) FulfilUnfulfilled(ctx context.Context, reference string) (*PurchaseResult, error) {
	logger.EnterMethod("purchaseService.FulfilUnfulfilled", "reference", reference)

	tx, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.FulfilUnfulfilled", err)
		return nil, err
	}
	switch {
	case tx.Status.IsTerminal():
		err = fmt.Errorf("%w: %s is %s", domain.ErrAlreadyProcessed, reference, tx.Status)
	case tx.Status != domain.StatusUnfulfilled:
		err = fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, reference, tx.Status)
	case !tx.Type.IsPurchase():
		err = fmt.Errorf("%w: %s is a %s", domain.ErrInvalidTransition, reference, tx.Type)
	case tx.FailureReason == reasonAmountMismatch:
		err = fmt.Errorf("%w: %s needs manual review", domain.ErrAmountMismatch, reference)
	}
	if err != nil {
		logger.ExitMethodWithError("purchaseService.FulfilUnfulfilled", err)
		return nil, err
	}

	done, err := s.complete(ctx, tx)
	if err != nil {
		logger.ExitMethodWithError("purchaseService.FulfilUnfulfilled", err, "reference", reference, "user_id", tx.UserID)
		return nil, err
	}
	logger.ExitMethod("purchaseService.FulfilUnfulfilled", "reference", reference)
	return resultOf(done), nil
}

// createWithReference assigns a fresh reference, retrying the rare collision.
func createWithReference(ctx context.Context, ledgerRepo repository.LedgerRepository, tx *domain.Transaction) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		tx.Reference = domain.NewReference(now())
		tx.Timestamp = now()
		err = ledgerRepo.CreateTransaction(ctx, tx)
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return err
		}
	}
	return err
}
