package repository

import (
	"context"
	"time"

	"ctspark-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// LedgerRepository owns transactions and the balances they move.
type LedgerRepository interface {
	// CreateTransaction stores a new pending transaction. A reused reference
	// fails with domain.ErrDuplicateReference.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.Transaction, int32, error)
	// ListByStatus returns transactions in status created before olderThan, oldest first.
	ListByStatus(ctx context.Context, status domain.TransactionStatus, olderThan time.Time, limit int32) ([]domain.Transaction, error)
	// ApplyTransition performs the guarded status change and the balance delta on the
	// owning user in one atomic unit. The stored status must equal t.From, otherwise
	// domain.ErrAlreadyProcessed; a delta that would make the balance negative fails
	// with domain.ErrInsufficientBalance and nothing is written.
	ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Transaction, error)
	GetBalance(ctx context.Context, userID string) (domain.Kobo, error)
}

// VoucherRepository stores plan pools sharded into numbered buckets.
type VoucherRepository interface {
	// FindUnused returns up to limit unused vouchers of one bucket for a location.
	FindUnused(ctx context.Context, planKey string, bucket int, locationID string, limit int) ([]domain.Voucher, error)
	// MarkUsed is the only way to flip used=false→true. It is a single conditional
	// write; a voucher claimed by someone else fails with domain.ErrVoucherTaken.
	MarkUsed(ctx context.Context, v domain.Voucher, claim domain.Claim) (*domain.Voucher, error)
	// CountBucket counts vouchers of one bucket; an empty locationID counts all locations.
	CountBucket(ctx context.Context, planKey string, bucket int, locationID string) (unused, used int64, err error)
	// Insert appends vouchers to one bucket in a single batch. A code already
	// stored for the plan, in any bucket, fails the whole batch with
	// domain.ErrDuplicateCode.
	Insert(ctx context.Context, planKey string, bucket int, vouchers []domain.Voucher) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID string) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	UserRepository
	LedgerRepository
	VoucherRepository
	NotificationRepository
}
