package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

type voucherRepository struct {
	db *sql.DB
}

func NewVoucherRepository(db *sql.DB) repository.VoucherRepository {
	return &voucherRepository{db: db}
}

func (r *voucherRepository) FindUnused(ctx context.Context, planKey string, bucket int, locationID string, limit int) ([]domain.Voucher, error) {
	query := `SELECT id, code, plan_key, bucket, location_id, used, COALESCE(assigned_to, ''), assigned_at, COALESCE(transaction_ref, ''), created_at 
	          FROM vouchers WHERE plan_key = $1 AND bucket = $2 AND location_id = $3 AND used = FALSE ORDER BY created_at, id LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, planKey, bucket, locationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		var v domain.Voucher
		var assignedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.Code, &v.PlanKey, &v.Bucket, &v.LocationID, &v.Used, &v.AssignedTo, &assignedAt, &v.TransactionRef, &v.CreatedAt); err != nil {
			return nil, err
		}
		if assignedAt.Valid {
			v.AssignedAt = &assignedAt.Time
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

func (r *voucherRepository) MarkUsed(ctx context.Context, v domain.Voucher, claim domain.Claim) (*domain.Voucher, error) {
	query := `UPDATE vouchers SET used = TRUE, assigned_to = $1, assigned_at = $2, transaction_ref = $3 WHERE id = $4 AND used = FALSE`
	logger.DatabaseCall("UPDATE", "vouchers", "voucherID", v.ID, "reference", claim.TransactionRef)
	result, err := r.db.ExecContext(ctx, query, claim.UserID, claim.At, claim.TransactionRef, v.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "voucherID", v.ID)
		return nil, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "voucherID", v.ID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrVoucherTaken, v.ID)
	}

	at := claim.At
	v.Used = true
	v.AssignedTo = claim.UserID
	v.AssignedAt = &at
	v.TransactionRef = claim.TransactionRef
	return &v, nil
}

func (r *voucherRepository) CountBucket(ctx context.Context, planKey string, bucket int, locationID string) (int64, int64, error) {
	query := `SELECT count(*) FILTER (WHERE NOT used), count(*) FILTER (WHERE used) 
	          FROM vouchers WHERE plan_key = $1 AND bucket = $2 AND ($3 = '' OR location_id = $3)`
	var unused, used int64
	err := r.db.QueryRowContext(ctx, query, planKey, bucket, locationID).Scan(&unused, &used)
	return unused, used, err
}

// Insert bulk-loads one bucket with COPY. A code already present for the plan
// violates the unique index and the whole batch is rolled back.
func (r *voucherRepository) Insert(ctx context.Context, planKey string, bucket int, vouchers []domain.Voucher) error {
	logger.EnterMethod("voucherRepository.Insert", "plan", planKey, "bucket", bucket, "count", len(vouchers))

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, pq.CopyIn("vouchers", "id", "code", "plan_key", "bucket", "location_id", "used", "created_at"))
	if err != nil {
		logger.ExitMethodWithError("voucherRepository.Insert", err, "reason", "prepare copy")
		return err
	}

	now := time.Now().UTC()
	for _, v := range vouchers {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, v.ID, v.Code, planKey, bucket, v.LocationID, false, now); err != nil {
			stmt.Close()
			logger.ExitMethodWithError("voucherRepository.Insert", err, "code", v.Code)
			return duplicateCode(planKey, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		logger.ExitMethodWithError("voucherRepository.Insert", err, "reason", "flush copy")
		return duplicateCode(planKey, err)
	}
	if err := stmt.Close(); err != nil {
		return duplicateCode(planKey, err)
	}
	if err := dbTx.Commit(); err != nil {
		logger.ExitMethodWithError("voucherRepository.Insert", err, "reason", "commit failed")
		return duplicateCode(planKey, err)
	}
	logger.ExitMethod("voucherRepository.Insert", "plan", planKey, "bucket", bucket, "inserted", len(vouchers))
	return nil
}

// duplicateCode maps the (plan_key, code) unique violation onto the domain error.
func duplicateCode(planKey string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrDuplicateCode, planKey, err)
	}
	return err
}
