package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ctspark-backend/internal/domain"
)

type ledgerRepository struct {
	db *db
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.transactions[tx.Reference]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, tx.Reference)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	tx.UpdatedAt = tx.Timestamp
	cp := *tx
	r.db.transactions[tx.Reference] = &cp
	return nil
}

func (r *ledgerRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tx, ok := r.db.transactions[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, reference)
	}
	cp := *tx
	return &cp, nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.Transaction, int32, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var all []domain.Transaction
	for _, tx := range r.db.transactions {
		if tx.UserID == userID {
			all = append(all, *tx)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	return page(all, limit, offset), int32(len(all)), nil
}

func (r *ledgerRepository) ListByStatus(ctx context.Context, status domain.TransactionStatus, olderThan time.Time, limit int32) ([]domain.Transaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Transaction
	for _, tx := range r.db.transactions {
		if tx.Status.Normalize() == status && tx.Timestamp.Before(olderThan) {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return page(out, limit, 0), nil
}

func (r *ledgerRepository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tx, ok := r.db.transactions[t.Reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, t.Reference)
	}
	if err := domain.GuardCurrent(tx.Status, t); err != nil {
		return nil, err
	}

	if t.BalanceDelta != 0 {
		u, ok := r.db.users[tx.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, tx.UserID)
		}
		if u.Balance+t.BalanceDelta < 0 {
			return nil, domain.ErrInsufficientBalance
		}
		u.Balance += t.BalanceDelta
		if tx.Type == domain.TransactionTypeDeposit && t.BalanceDelta > 0 {
			at := t.At
			u.LastDepositAt = &at
		}
	}

	t.Apply(tx)
	cp := *tx
	return &cp, nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID string) (domain.Kobo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return u.Balance, nil
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}
