package firestoredb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
)

type voucherRepository struct {
	client *firestore.Client
}

func (r *voucherRepository) bucket(planKey string, bucket int) *firestore.CollectionRef {
	return r.client.Collection(vouchersCollection).Doc(planKey).Collection(domain.BucketName(bucket))
}

func (r *voucherRepository) FindUnused(ctx context.Context, planKey string, bucket int, locationID string, limit int) ([]domain.Voucher, error) {
	q := r.bucket(planKey, bucket).
		Where("used", "==", false).
		Where("locationId", "==", locationID)
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()
	var vouchers []domain.Voucher
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return vouchers, nil
		}
		if err != nil {
			return nil, err
		}
		var v domain.Voucher
		if err := snap.DataTo(&v); err != nil {
			return nil, err
		}
		v.ID = snap.Ref.ID
		v.PlanKey = planKey
		v.Bucket = bucket
		vouchers = append(vouchers, v)
	}
}

// MarkUsed re-reads the voucher inside a Firestore transaction and only writes when
// it is still unused. A concurrent winner makes the retry observe used=true.
func (r *voucherRepository) MarkUsed(ctx context.Context, v domain.Voucher, claim domain.Claim) (*domain.Voucher, error) {
	ref := r.bucket(v.PlanKey, v.Bucket).Doc(v.ID)
	logger.DatabaseCall("UPDATE", ref.Path, "reference", claim.TransactionRef)

	var claimed domain.Voucher
	err := r.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		snap, err := ftx.Get(ref)
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", domain.ErrVoucherTaken, v.ID)
		}
		if err != nil {
			return err
		}
		if err := snap.DataTo(&claimed); err != nil {
			return err
		}
		if claimed.Used {
			return fmt.Errorf("%w: %s", domain.ErrVoucherTaken, v.ID)
		}
		return ftx.Update(ref, []firestore.Update{
			{Path: "used", Value: true},
			{Path: "assignedTo", Value: claim.UserID},
			{Path: "assignedAt", Value: claim.At},
			{Path: "transactionRef", Value: claim.TransactionRef},
		})
	})
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "voucherID", v.ID)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil, "voucherID", v.ID)

	at := claim.At
	claimed.ID = v.ID
	claimed.PlanKey = v.PlanKey
	claimed.Bucket = v.Bucket
	claimed.Used = true
	claimed.AssignedTo = claim.UserID
	claimed.AssignedAt = &at
	claimed.TransactionRef = claim.TransactionRef
	return &claimed, nil
}

func (r *voucherRepository) CountBucket(ctx context.Context, planKey string, bucket int, locationID string) (int64, int64, error) {
	q := r.bucket(planKey, bucket).Query
	if locationID != "" {
		q = q.Where("locationId", "==", locationID)
	}
	unused, err := count(ctx, q.Where("used", "==", false))
	if err != nil {
		return 0, 0, err
	}
	used, err := count(ctx, q.Where("used", "==", true))
	if err != nil {
		return 0, 0, err
	}
	return unused, used, nil
}

// codeRef is the uniqueness marker of a code within a plan. Codes may contain
// characters that are illegal in document IDs, so the ID is a hash.
func (r *voucherRepository) codeRef(planKey, code string) *firestore.DocumentRef {
	sum := sha256.Sum256([]byte(code))
	return r.client.Collection(vouchersCollection).Doc(planKey).Collection(codesCollection).Doc(hex.EncodeToString(sum[:]))
}

type codeMarker struct {
	Code      string    `firestore:"code"`
	Bucket    int       `firestore:"bucket"`
	VoucherID string    `firestore:"voucherId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// Insert writes the batch and one code marker per voucher in a single
// transaction. Markers are read first, so an existing code rejects the batch
// before anything is written; a concurrent upload of the same code loses on
// Create and the transaction fails.
func (r *voucherRepository) Insert(ctx context.Context, planKey string, bucket int, vouchers []domain.Voucher) error {
	logger.EnterMethod("firestore.voucherRepository.Insert", "plan", planKey, "bucket", bucket, "count", len(vouchers))

	coll := r.bucket(planKey, bucket)
	markers := make([]*firestore.DocumentRef, len(vouchers))
	seen := make(map[string]bool, len(vouchers))
	for i, v := range vouchers {
		if seen[v.Code] {
			err := fmt.Errorf("%w: %s %s", domain.ErrDuplicateCode, planKey, v.Code)
			logger.ExitMethodWithError("firestore.voucherRepository.Insert", err)
			return err
		}
		seen[v.Code] = true
		markers[i] = r.codeRef(planKey, v.Code)
	}

	now := time.Now().UTC()
	err := r.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		snaps, err := ftx.GetAll(markers)
		if err != nil {
			return err
		}
		for i, snap := range snaps {
			if snap.Exists() {
				return fmt.Errorf("%w: %s %s", domain.ErrDuplicateCode, planKey, vouchers[i].Code)
			}
		}

		for i, v := range vouchers {
			ref := coll.NewDoc()
			if v.ID != "" {
				ref = coll.Doc(v.ID)
			}
			v.PlanKey = planKey
			v.Bucket = bucket
			v.Used = false
			v.CreatedAt = now
			if err := ftx.Create(ref, v); err != nil {
				return err
			}
			if err := ftx.Create(markers[i], codeMarker{Code: v.Code, Bucket: bucket, VoucherID: ref.ID, CreatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	if status.Code(err) == codes.AlreadyExists {
		err = fmt.Errorf("%w: %s: %v", domain.ErrDuplicateCode, planKey, err)
	}
	if err != nil {
		logger.ExitMethodWithError("firestore.voucherRepository.Insert", err, "plan", planKey, "bucket", bucket)
		return err
	}
	logger.ExitMethod("firestore.voucherRepository.Insert", "plan", planKey, "bucket", bucket)
	return nil
}
