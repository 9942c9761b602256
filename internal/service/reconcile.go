package service

import (
	"context"
	"errors"
	"fmt"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

type ReconcileConfig struct {
	// WebhookSecret keys the HMAC-SHA512 webhook signature.
	WebhookSecret string
	// WebhookGateway is the gateway whose events arrive on the webhook endpoint.
	WebhookGateway domain.PaymentGateway
}

type reconcileService struct {
	cfg        ReconcileConfig
	ledgerRepo repository.LedgerRepository
	verifiers  map[domain.PaymentGateway]gateway.Verifier
	*fulfiller
}

func NewReconcileService(
	cfg ReconcileConfig,
	ledgerRepo repository.LedgerRepository,
	inventory InventoryService,
	notifier NotificationService,
	alerts AlertService,
	verifiers ...gateway.Verifier,
) ReconcileService {
	if cfg.WebhookGateway == "" {
		cfg.WebhookGateway = domain.GatewayPaystack
	}
	byName := make(map[domain.PaymentGateway]gateway.Verifier, len(verifiers))
	for _, v := range verifiers {
		byName[v.Name()] = v
	}
	return &reconcileService{
		cfg:        cfg,
		ledgerRepo: ledgerRepo,
		verifiers:  byName,
		fulfiller: &fulfiller{
			ledgerRepo: ledgerRepo,
			inventory:  inventory,
			notifier:   notifier,
			alerts:     alerts,
		},
	}
}

// HandleWebhook authenticates the body, then treats the event purely as a trigger:
// the gateway's verify endpoint decides what happened. Errors returned are
// ErrInvalidSignature, ErrTransactionNotFound or failures worth logging; every
// other path is an acknowledged no-op.
func (s *reconcileService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	logger.EnterMethod("reconcileService.HandleWebhook", "bytes", len(rawBody))

	if !gateway.VerifySignature(rawBody, signature, s.cfg.WebhookSecret) {
		logger.ExitMethodWithError("reconcileService.HandleWebhook", domain.ErrInvalidSignature)
		return OutcomeIgnored, domain.ErrInvalidSignature
	}

	ev, err := gateway.ParseEvent(rawBody)
	if err != nil {
		logger.Warn("Ignoring malformed webhook event", "error", err)
		return OutcomeIgnored, nil
	}
	if ev.Kind == gateway.EventUnhandled {
		logger.Info("Unhandled webhook event", "event", ev.Name)
		return OutcomeIgnored, nil
	}

	verifier, ok := s.verifiers[s.cfg.WebhookGateway]
	if !ok {
		return OutcomeIgnored, fmt.Errorf("%w: no verifier for %s", domain.ErrUnsupportedGateway, s.cfg.WebhookGateway)
	}
	tx, err := s.ledgerRepo.GetByReference(ctx, ev.Reference)
	if err != nil {
		logger.ExitMethodWithError("reconcileService.HandleWebhook", err, "reference", ev.Reference)
		return OutcomeIgnored, err
	}

	v, verifyErr := verifier.Verify(ctx, ev.Reference)
	if errors.Is(verifyErr, gateway.ErrGatewayUnavailable) {
		logger.Warn("Gateway unavailable, leaving transaction pending", "reference", ev.Reference, "event", ev.Name, "error", verifyErr)
		return OutcomeDeferred, nil
	}
	if verifyErr != nil {
		logger.ExitMethodWithError("reconcileService.HandleWebhook", verifyErr, "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount)
		return OutcomeIgnored, fmt.Errorf("verify %s: %w", ev.Reference, verifyErr)
	}

	outcome, err := s.settle(ctx, tx, v)
	if err != nil {
		logger.ExitMethodWithError("reconcileService.HandleWebhook", err, "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount)
		return outcome, err
	}
	logger.ExitMethod("reconcileService.HandleWebhook", "reference", tx.Reference, "event", ev.Name, "outcome", outcome)
	return outcome, nil
}

// ReconcileReference settles a pending transaction without a webhook, using the
// gateway the transaction was initiated with.
func (s *reconcileService) ReconcileReference(ctx context.Context, reference string) (Outcome, error) {
	logger.EnterMethod("reconcileService.ReconcileReference", "reference", reference)

	tx, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		logger.ExitMethodWithError("reconcileService.ReconcileReference", err, "reference", reference)
		return OutcomeIgnored, err
	}
	if tx.Status != domain.StatusPending {
		logger.ExitMethod("reconcileService.ReconcileReference", "reference", reference, "status", tx.Status)
		return OutcomeAlreadyProcessed, nil
	}

	verifier, ok := s.verifiers[tx.PaymentGateway]
	if !ok {
		return OutcomeIgnored, fmt.Errorf("%w: no verifier for %s", domain.ErrUnsupportedGateway, tx.PaymentGateway)
	}
	v, err := verifier.Verify(ctx, reference)
	if errors.Is(err, gateway.ErrGatewayUnavailable) {
		logger.Warn("Gateway unavailable, leaving transaction pending", "reference", reference, "error", err)
		return OutcomeDeferred, nil
	}
	if err != nil {
		logger.ExitMethodWithError("reconcileService.ReconcileReference", err, "reference", reference, "user_id", tx.UserID, "amount", tx.Amount)
		return OutcomeIgnored, fmt.Errorf("verify %s: %w", reference, err)
	}

	outcome, err := s.settle(ctx, tx, v)
	if err != nil {
		logger.ExitMethodWithError("reconcileService.ReconcileReference", err, "reference", reference, "user_id", tx.UserID, "amount", tx.Amount)
		return outcome, err
	}
	logger.ExitMethod("reconcileService.ReconcileReference", "reference", reference, "outcome", outcome)
	return outcome, nil
}

func (s *reconcileService) settle(ctx context.Context, tx *domain.Transaction, v *gateway.Verification) (Outcome, error) {
	if tx.Status != domain.StatusPending {
		return OutcomeAlreadyProcessed, nil
	}

	switch v.Status {
	case gateway.StatusPending:
		logger.Info("Gateway still reports pending", "reference", tx.Reference)
		return OutcomeStillPending, nil
	case gateway.StatusFailed:
		return s.fail(ctx, tx, v)
	}

	if v.Amount != tx.Amount {
		return s.holdMismatch(ctx, tx, v)
	}
	switch tx.Type {
	case domain.TransactionTypeDeposit:
		return s.creditDeposit(ctx, tx, v)
	case domain.TransactionTypeDirectPayment:
		return s.fulfilDirect(ctx, tx, v)
	default:
		return OutcomeIgnored, fmt.Errorf("%w: %s transactions are not gateway-settled", domain.ErrInvalidTransition, tx.Type)
	}
}

func (s *reconcileService) creditDeposit(ctx context.Context, tx *domain.Transaction, v *gateway.Verification) (Outcome, error) {
	_, err := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:      tx.Reference,
		From:           domain.StatusPending,
		To:             domain.StatusSuccess,
		BalanceDelta:   tx.Amount,
		PaymentDetails: v.Details(),
		At:             now(),
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("credit deposit %s: %w", tx.Reference, err)
	}

	logger.Info("Deposit credited", "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount)
	s.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePayment, string(domain.StatusSuccess), tx.Amount,
		fmt.Sprintf("Your deposit of %s was successful", tx.Amount))
	return OutcomeSucceeded, nil
}

func (s *reconcileService) fail(ctx context.Context, tx *domain.Transaction, v *gateway.Verification) (Outcome, error) {
	reason := v.GatewayResponse
	if reason == "" {
		reason = reasonPaymentFailed
	}
	_, err := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:      tx.Reference,
		From:           domain.StatusPending,
		To:             domain.StatusFailed,
		FailureReason:  reason,
		PaymentDetails: v.Details(),
		At:             now(),
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("fail %s: %w", tx.Reference, err)
	}

	logger.Info("Payment failed", "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount, "reason", reason)
	if tx.Type == domain.TransactionTypeDeposit {
		s.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePayment, string(domain.StatusFailed), tx.Amount,
			"Your deposit failed. Please try again.")
	} else {
		s.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePurchase, string(domain.StatusFailed), tx.Amount,
			fmt.Sprintf("Your payment for %s failed. Please try again.", planTitle(tx.Plan)))
	}
	return OutcomeFailed, nil
}

// holdMismatch parks a payment whose captured amount differs from what was
// charged for. Nothing is credited; the back office resolves it.
func (s *reconcileService) holdMismatch(ctx context.Context, tx *domain.Transaction, v *gateway.Verification) (Outcome, error) {
	_, err := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:      tx.Reference,
		From:           domain.StatusPending,
		To:             domain.StatusUnfulfilled,
		FailureReason:  reasonAmountMismatch,
		PaymentDetails: v.Details(),
		At:             now(),
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("hold %s: %w", tx.Reference, err)
	}

	logger.Error("Gateway amount does not match transaction",
		"reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount, "gateway_amount", v.Amount)
	s.alert(ctx, fmt.Sprintf("Amount mismatch on %s", tx.Reference),
		fmt.Sprintf("Reference: %s\nUser: %s\nType: %s\nExpected: %s\nGateway reported: %s\n",
			tx.Reference, tx.UserID, tx.Type, tx.Amount, v.Amount))
	return OutcomeUnfulfilled, nil
}

func (s *reconcileService) fulfilDirect(ctx context.Context, tx *domain.Transaction, v *gateway.Verification) (Outcome, error) {
	paid, err := s.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:      tx.Reference,
		From:           domain.StatusPending,
		To:             domain.StatusUnfulfilled,
		PaymentDetails: v.Details(),
		At:             now(),
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("mark %s paid: %w", tx.Reference, err)
	}

	if _, err := s.complete(ctx, paid); err != nil {
		if errors.Is(err, domain.ErrNoVoucherAvailable) {
			s.holdForOperator(ctx, paid, reasonNoVoucher)
			return OutcomeUnfulfilled, nil
		}
		s.holdForOperator(ctx, paid, err.Error())
		return OutcomeUnfulfilled, err
	}
	return OutcomeSucceeded, nil
}
