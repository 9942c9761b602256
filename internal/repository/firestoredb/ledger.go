package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
)

type ledgerRepository struct {
	client *firestore.Client
}

func (r *ledgerRepository) transactions() *firestore.CollectionRef {
	return r.client.Collection(transactionsCollection)
}

func decodeTransaction(snap *firestore.DocumentSnapshot) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := snap.DataTo(&tx); err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", snap.Ref.ID, err)
	}
	tx.ID = snap.Ref.ID
	tx.Status = tx.Status.Normalize()
	return &tx, nil
}

// CreateTransaction keys the document by reference so Create itself enforces uniqueness.
func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("firestore.ledgerRepository.CreateTransaction", "reference", tx.Reference, "userID", tx.UserID)

	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	tx.UpdatedAt = tx.Timestamp
	tx.ID = tx.Reference

	logger.DatabaseCall("CREATE", transactionsCollection, "reference", tx.Reference)
	_, err := r.transactions().Doc(tx.Reference).Create(ctx, tx)
	logger.DatabaseResult("CREATE", 1, err, "reference", tx.Reference)
	if isAlreadyExists(err) {
		err = fmt.Errorf("%w: %s", domain.ErrDuplicateReference, tx.Reference)
	}
	if err != nil {
		logger.ExitMethodWithError("firestore.ledgerRepository.CreateTransaction", err, "reference", tx.Reference)
		return err
	}
	logger.ExitMethod("firestore.ledgerRepository.CreateTransaction", "reference", tx.Reference)
	return nil
}

func (r *ledgerRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	snap, err := r.transactions().Doc(reference).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, reference)
	}
	if err != nil {
		return nil, err
	}
	return decodeTransaction(snap)
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.Transaction, int32, error) {
	q := r.transactions().Where("userId", "==", userID)
	page := q.OrderBy("timestamp", firestore.Desc).Offset(int(offset))
	if limit > 0 {
		page = page.Limit(int(limit))
	}
	txs, err := collect(page.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return txs, int32(total), nil
}

func (r *ledgerRepository) ListByStatus(ctx context.Context, st domain.TransactionStatus, olderThan time.Time, limit int32) ([]domain.Transaction, error) {
	q := r.transactions().
		Where("status", "==", string(st)).
		Where("timestamp", "<", olderThan).
		OrderBy("timestamp", firestore.Asc)
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	return collect(q.Documents(ctx))
}

func collect(it *firestore.DocumentIterator) ([]domain.Transaction, error) {
	defer it.Stop()
	var txs []domain.Transaction
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return txs, nil
		}
		if err != nil {
			return nil, err
		}
		tx, err := decodeTransaction(snap)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
}

// ApplyTransition reads the transaction and, when money moves, the owner inside one
// Firestore transaction. Firestore retries the function on contention, so the guard
// is re-evaluated against the committed state every attempt.
func (r *ledgerRepository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Transaction, error) {
	logger.EnterMethod("firestore.ledgerRepository.ApplyTransition", "reference", t.Reference, "from", t.From, "to", t.To, "delta", t.BalanceDelta)

	if err := t.Validate(); err != nil {
		logger.ExitMethodWithError("firestore.ledgerRepository.ApplyTransition", err, "reference", t.Reference)
		return nil, err
	}

	var result *domain.Transaction
	err := r.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		txRef := r.transactions().Doc(t.Reference)
		snap, err := ftx.Get(txRef)
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, t.Reference)
		}
		if err != nil {
			return err
		}
		tx, err := decodeTransaction(snap)
		if err != nil {
			return err
		}
		if err := domain.GuardCurrent(tx.Status, t); err != nil {
			return err
		}

		var userRef *firestore.DocumentRef
		if t.BalanceDelta != 0 {
			userRef = r.client.Collection(usersCollection).Doc(tx.UserID)
			usnap, err := ftx.Get(userRef)
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", domain.ErrUserNotFound, tx.UserID)
			}
			if err != nil {
				return err
			}
			var u domain.User
			if err := usnap.DataTo(&u); err != nil {
				return err
			}
			if u.Balance+t.BalanceDelta < 0 {
				return domain.ErrInsufficientBalance
			}
		}

		t.Apply(tx)
		if err := ftx.Set(txRef, tx); err != nil {
			return err
		}
		if userRef != nil {
			updates := []firestore.Update{{Path: "balance", Value: firestore.Increment(int64(t.BalanceDelta))}}
			if tx.Type == domain.TransactionTypeDeposit && t.BalanceDelta > 0 {
				updates = append(updates, firestore.Update{Path: "lastDepositAt", Value: t.At})
			}
			if err := ftx.Update(userRef, updates); err != nil {
				return err
			}
		}
		result = tx
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("firestore.ledgerRepository.ApplyTransition", err, "reference", t.Reference)
		return nil, err
	}
	logger.ExitMethod("firestore.ledgerRepository.ApplyTransition", "reference", t.Reference, "status", result.Status)
	return result, nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID string) (domain.Kobo, error) {
	snap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if isNotFound(err) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return 0, err
	}
	var u domain.User
	if err := snap.DataTo(&u); err != nil {
		return 0, err
	}
	return u.Balance, nil
}
