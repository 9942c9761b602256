package service

import (
	"context"
	"time"

	"ctspark-backend/internal/domain"
)

type LedgerService interface {
	GetBalance(ctx context.Context, userID string) (domain.Kobo, error)
	GetTransactions(ctx context.Context, userID string, page, pageSize int32) ([]domain.Transaction, int32, error)
	// GetTransaction returns a transaction owned by userID; ErrNotOwner otherwise.
	GetTransaction(ctx context.Context, userID, reference string) (*domain.Transaction, error)
	// ListByStatus is the operator queue view (e.g. unfulfilled purchases).
	ListByStatus(ctx context.Context, status domain.TransactionStatus, limit int32) ([]domain.Transaction, error)
}

type NotificationService interface {
	// Notify appends to the user's feed. Failures are logged, never returned:
	// a notification must not undo or block a money movement.
	Notify(ctx context.Context, userID string, typ domain.NotificationType, status string, amount domain.Kobo, message string)
	GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
}

type AlertService interface {
	// SendOperatorAlert emails the operator mailbox.
	SendOperatorAlert(ctx context.Context, subject, message string) error
}

type InventoryService interface {
	// Claim assigns one unused voucher of the plan at the location to userID.
	Claim(ctx context.Context, planName, locationID, userID, reference string) (*domain.Voucher, error)
	Stock(ctx context.Context, planName, locationID string) (*domain.Stock, error)
	// StockReport returns stock for every catalog plan; an empty location sums all locations.
	StockReport(ctx context.Context, locationID string) ([]domain.Stock, error)
	Upload(ctx context.Context, planName, locationID string, codes []string) (int, error)
}

type DepositService interface {
	InitiateDeposit(ctx context.Context, userID string, amount domain.Kobo, gateway string) (*domain.Transaction, error)
}

type PurchaseService interface {
	PurchasePlan(ctx context.Context, userID, planTitle, paymentMethod string, amountPaid domain.Kobo) (*PurchaseResult, error)
	CompletePurchase(ctx context.Context, userID, reference string) (*PurchaseResult, error)
	// FulfilUnfulfilled retries the voucher claim for a paid purchase. It never moves money.
	FulfilUnfulfilled(ctx context.Context, reference string) (*PurchaseResult, error)
}

type ReconcileService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (Outcome, error)
	ReconcileReference(ctx context.Context, reference string) (Outcome, error)
}

// Outcome reports what reconciliation did with one reference.
type Outcome string

const (
	OutcomeIgnored          Outcome = "ignored"
	OutcomeDeferred         Outcome = "deferred"
	OutcomeStillPending     Outcome = "pending"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeSucceeded        Outcome = "success"
	OutcomeFailed           Outcome = "failed"
	OutcomeUnfulfilled      Outcome = "unfulfilled"
)

type PurchaseResult struct {
	TransactionReference string                   `json:"transactionReference"`
	VoucherCode          string                   `json:"voucherCode,omitempty"`
	Status               domain.TransactionStatus `json:"status"`
	Plan                 string                   `json:"plan"`
	Amount               domain.Kobo              `json:"amount"`
}

func resultOf(tx *domain.Transaction) *PurchaseResult {
	return &PurchaseResult{
		TransactionReference: tx.Reference,
		VoucherCode:          tx.VoucherCode,
		Status:               tx.Status,
		Plan:                 tx.Plan,
		Amount:               tx.Amount,
	}
}

func now() time.Time {
	return time.Now().UTC()
}
