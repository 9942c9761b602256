package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctspark-backend/internal/domain"
)

type voucherRepository struct {
	db *db
}

func (r *voucherRepository) FindUnused(ctx context.Context, planKey string, bucket int, locationID string, limit int) ([]domain.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Voucher
	for _, v := range r.db.vouchers[planKey][bucket] {
		if v.Used || v.LocationID != locationID {
			continue
		}
		out = append(out, *v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *voucherRepository) MarkUsed(ctx context.Context, v domain.Voucher, claim domain.Claim) (*domain.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, stored := range r.db.vouchers[v.PlanKey][v.Bucket] {
		if stored.ID != v.ID {
			continue
		}
		if stored.Used {
			return nil, domain.ErrVoucherTaken
		}
		at := claim.At
		stored.Used = true
		stored.AssignedTo = claim.UserID
		stored.AssignedAt = &at
		stored.TransactionRef = claim.TransactionRef
		cp := *stored
		return &cp, nil
	}
	return nil, domain.ErrVoucherTaken
}

func (r *voucherRepository) CountBucket(ctx context.Context, planKey string, bucket int, locationID string) (int64, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var unused, used int64
	for _, v := range r.db.vouchers[planKey][bucket] {
		if locationID != "" && v.LocationID != locationID {
			continue
		}
		if v.Used {
			used++
		} else {
			unused++
		}
	}
	return unused, used, nil
}

func (r *voucherRepository) Insert(ctx context.Context, planKey string, bucket int, vouchers []domain.Voucher) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.vouchers[planKey] == nil {
		r.db.vouchers[planKey] = make(map[int][]*domain.Voucher)
		r.db.codes[planKey] = make(map[string]bool)
	}
	seen := make(map[string]bool, len(vouchers))
	for _, v := range vouchers {
		if r.db.codes[planKey][v.Code] || seen[v.Code] {
			return fmt.Errorf("%w: %s %s", domain.ErrDuplicateCode, planKey, v.Code)
		}
		seen[v.Code] = true
	}
	now := time.Now().UTC()
	for i := range vouchers {
		v := vouchers[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.PlanKey = planKey
		v.Bucket = bucket
		r.db.vouchers[planKey][bucket] = append(r.db.vouchers[planKey][bucket], &v)
		r.db.codes[planKey][v.Code] = true
	}
	return nil
}
