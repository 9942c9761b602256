package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

const transactionColumns = `id, reference, user_id, amount, type, status, COALESCE(location_id, ''), payment_gateway, 
	COALESCE(plan, ''), COALESCE(voucher_code, ''), COALESCE(failure_reason, ''), payment_details, created_at, updated_at`

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var details []byte
	err := row.Scan(&tx.ID, &tx.Reference, &tx.UserID, &tx.Amount, &tx.Type, &tx.Status, &tx.LocationID, &tx.PaymentGateway,
		&tx.Plan, &tx.VoucherCode, &tx.FailureReason, &details, &tx.Timestamp, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tx.Status = tx.Status.Normalize()
	if len(details) > 0 {
		tx.PaymentDetails = &domain.PaymentDetails{}
		if err := json.Unmarshal(details, tx.PaymentDetails); err != nil {
			return nil, fmt.Errorf("decode payment details of %s: %w", tx.Reference, err)
		}
	}
	return &tx, nil
}

// marshalDetails returns the JSONB text of d, or NULL. lib/pq sends []byte in
// binary form, which jsonb does not accept.
func marshalDetails(d *domain.PaymentDetails) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("ledgerRepository.CreateTransaction", "reference", tx.Reference, "userID", tx.UserID, "type", tx.Type)

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	tx.UpdatedAt = tx.Timestamp

	details, err := marshalDetails(tx.PaymentDetails)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.CreateTransaction", err, "reason", "failed to marshal payment details")
		return err
	}

	query := `INSERT INTO transactions (id, reference, user_id, amount, type, status, location_id, payment_gateway, plan, payment_details, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	logger.DatabaseCall("INSERT", "transactions", "reference", tx.Reference)
	_, err = r.db.ExecContext(ctx, query, tx.ID, tx.Reference, tx.UserID, tx.Amount, tx.Type, tx.Status, tx.LocationID,
		tx.PaymentGateway, tx.Plan, details, tx.Timestamp, tx.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "reference", tx.Reference)
	if isUniqueViolation(err) {
		err = fmt.Errorf("%w: %s", domain.ErrDuplicateReference, tx.Reference)
	}
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.CreateTransaction", err, "reference", tx.Reference)
		return err
	}
	logger.ExitMethod("ledgerRepository.CreateTransaction", "transactionID", tx.ID)
	return nil
}

func (r *ledgerRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, reference)
	}
	return tx, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.Transaction, int32, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *ledgerRepository) ListByStatus(ctx context.Context, status domain.TransactionStatus, olderThan time.Time, limit int32) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, status, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// ApplyTransition flips the status with a guarded UPDATE and moves the balance in the
// same database transaction. A zero-row status update means the guard failed.
func (r *ledgerRepository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Transaction, error) {
	logger.EnterMethod("ledgerRepository.ApplyTransition", "reference", t.Reference, "from", t.From, "to", t.To, "delta", t.BalanceDelta)

	if err := t.Validate(); err != nil {
		logger.ExitMethodWithError("ledgerRepository.ApplyTransition", err, "reference", t.Reference)
		return nil, err
	}
	details, err := marshalDetails(t.PaymentDetails)
	if err != nil {
		return nil, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	query := `UPDATE transactions SET status = $1, voucher_code = COALESCE(NULLIF($2, ''), voucher_code), 
	          failure_reason = COALESCE(NULLIF($3, ''), failure_reason), payment_details = COALESCE($4, payment_details), updated_at = $5 
	          WHERE reference = $6 AND status = $7 RETURNING ` + transactionColumns
	logger.DatabaseCall("UPDATE", "transactions", "reference", t.Reference, "from", t.From, "to", t.To)
	tx, err := scanTransaction(dbTx.QueryRowContext(ctx, query, t.To, t.VoucherCode, t.FailureReason, details, t.At, t.Reference, t.From))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, nil, "reference", t.Reference)
		err = r.explainGuardFailure(ctx, dbTx, t)
	}
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.ApplyTransition", err, "reference", t.Reference)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil, "reference", t.Reference)

	if t.BalanceDelta != 0 {
		if err := r.moveBalance(ctx, dbTx, tx, t); err != nil {
			logger.ExitMethodWithError("ledgerRepository.ApplyTransition", err, "reference", t.Reference, "userID", tx.UserID)
			return nil, err
		}
	}

	if err := dbTx.Commit(); err != nil {
		logger.ExitMethodWithError("ledgerRepository.ApplyTransition", err, "reason", "commit failed")
		return nil, err
	}
	logger.ExitMethod("ledgerRepository.ApplyTransition", "reference", t.Reference, "status", tx.Status)
	return tx, nil
}

func (r *ledgerRepository) explainGuardFailure(ctx context.Context, dbTx *sql.Tx, t domain.Transition) error {
	var current domain.TransactionStatus
	err := dbTx.QueryRowContext(ctx, `SELECT status FROM transactions WHERE reference = $1`, t.Reference).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, t.Reference)
	}
	if err != nil {
		return err
	}
	if err := domain.GuardCurrent(current, t); err != nil {
		return err
	}
	// Status matched on re-read: a concurrent writer rolled back between the two statements.
	return fmt.Errorf("%w: %s changed concurrently", domain.ErrAlreadyProcessed, t.Reference)
}

func (r *ledgerRepository) moveBalance(ctx context.Context, dbTx *sql.Tx, tx *domain.Transaction, t domain.Transition) error {
	credit := tx.Type == domain.TransactionTypeDeposit && t.BalanceDelta > 0
	query := `UPDATE users SET balance = balance + $1, last_deposit_at = CASE WHEN $2 THEN $3 ELSE last_deposit_at END 
	          WHERE id = $4 AND balance + $1 >= 0`
	logger.DatabaseCall("UPDATE", "users", "userID", tx.UserID, "delta", t.BalanceDelta)
	result, err := dbTx.ExecContext(ctx, query, t.BalanceDelta, credit, t.At, tx.UserID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "userID", tx.UserID)
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	var balance domain.Kobo
	err = dbTx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = $1`, tx.UserID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, tx.UserID)
	}
	if err != nil {
		return err
	}
	return domain.ErrInsufficientBalance
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID string) (domain.Kobo, error) {
	var balance domain.Kobo
	query := `SELECT balance FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return balance, err
}
