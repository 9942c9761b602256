package service

import (
	"context"
	"fmt"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

const (
	reasonAmountMismatch = "amount mismatch"
	reasonPaymentFailed  = "Payment failed"
	reasonNoVoucher      = "no voucher available"
	reasonInsufficient   = "insufficient balance"
)

// fulfiller turns a paid (unfulfilled) purchase into a delivered voucher.
// It is shared by webhook reconciliation, balance purchases and operator retries.
type fulfiller struct {
	ledgerRepo repository.LedgerRepository
	inventory  InventoryService
	notifier   NotificationService
	alerts     AlertService
}

func (f *fulfiller) complete(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	v, err := f.inventory.Claim(ctx, tx.Plan, tx.LocationID, tx.UserID, tx.Reference)
	if err != nil {
		return nil, err
	}

	done, err := f.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:   tx.Reference,
		From:        domain.StatusUnfulfilled,
		To:          domain.StatusSuccess,
		VoucherCode: v.Code,
		At:          now(),
	})
	if err != nil {
		// The voucher row carries the reference, so an operator can finish this by hand.
		logger.Error("Voucher claimed but transaction not completed",
			"reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount, "voucher_id", v.ID, "error", err)
		return nil, fmt.Errorf("complete %s with voucher %s: %w", tx.Reference, v.ID, err)
	}

	logger.Info("Purchase fulfilled", "reference", tx.Reference, "user_id", tx.UserID, "plan", tx.Plan, "amount", tx.Amount)
	f.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePurchase, string(domain.StatusSuccess), tx.Amount,
		fmt.Sprintf("Your %s purchase was successful. Voucher code: %s", planTitle(tx.Plan), v.Code))
	return done, nil
}

// holdForOperator leaves a paid purchase unfulfilled and tells both sides.
func (f *fulfiller) holdForOperator(ctx context.Context, tx *domain.Transaction, reason string) {
	logger.Warn("Purchase held for operator", "reference", tx.Reference, "user_id", tx.UserID, "plan", tx.Plan, "amount", tx.Amount, "reason", reason)
	f.alert(ctx, fmt.Sprintf("Unfulfilled purchase %s", tx.Reference),
		fmt.Sprintf("Reference: %s\nUser: %s\nPlan: %s\nLocation: %s\nAmount: %s\nReason: %s\n",
			tx.Reference, tx.UserID, planTitle(tx.Plan), tx.LocationID, tx.Amount, reason))
	f.notifier.Notify(ctx, tx.UserID, domain.NotificationTypePurchase, string(domain.StatusUnfulfilled), tx.Amount,
		fmt.Sprintf("Payment of %s received for %s. Your voucher will be sent shortly.", tx.Amount, planTitle(tx.Plan)))
}

func (f *fulfiller) alert(ctx context.Context, subject, message string) {
	if err := f.alerts.SendOperatorAlert(ctx, subject, message); err != nil {
		logger.Error("Failed to send operator alert", "subject", subject, "error", err)
	}
}

func planTitle(name string) string {
	if p, err := domain.LookupPlan(name); err == nil {
		return p.Title
	}
	return name
}
