package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
)

// claimBatch is how many candidates one FindUnused round fetches.
const claimBatch = 5

type inventoryService struct {
	voucherRepo    repository.VoucherRepository
	bucketCount    int
	bucketCapacity int
}

func NewInventoryService(voucherRepo repository.VoucherRepository, bucketCount, bucketCapacity int) InventoryService {
	if bucketCount <= 0 {
		bucketCount = domain.DefaultBucketCount
	}
	if bucketCapacity <= 0 {
		bucketCapacity = domain.DefaultBucketCapacity
	}
	return &inventoryService{
		voucherRepo:    voucherRepo,
		bucketCount:    bucketCount,
		bucketCapacity: bucketCapacity,
	}
}

// Claim walks the buckets in order. Within a bucket it keeps fetching small
// batches of candidates and races for each with a conditional write; a lost
// race only moves on to the next candidate.
func (s *inventoryService) Claim(ctx context.Context, planName, locationID, userID, reference string) (*domain.Voucher, error) {
	logger.EnterMethod("inventoryService.Claim", "plan", planName, "location", locationID, "user_id", userID, "reference", reference)

	plan := domain.NormalizePlanKey(planName)
	if plan == "" {
		err := fmt.Errorf("%w: %q", domain.ErrUnknownPlan, planName)
		logger.ExitMethodWithError("inventoryService.Claim", err)
		return nil, err
	}
	claim := domain.Claim{UserID: userID, TransactionRef: reference, At: now()}

	for bucket := 1; bucket <= s.bucketCount; bucket++ {
		for {
			candidates, err := s.voucherRepo.FindUnused(ctx, plan, bucket, locationID, claimBatch)
			if err != nil {
				logger.ExitMethodWithError("inventoryService.Claim", err, "bucket", bucket)
				return nil, fmt.Errorf("find vouchers in %s/%s: %w", plan, domain.BucketName(bucket), err)
			}
			if len(candidates) == 0 {
				break
			}
			for _, c := range candidates {
				v, err := s.voucherRepo.MarkUsed(ctx, c, claim)
				if err == nil {
					logger.ExitMethod("inventoryService.Claim", "voucher_id", v.ID, "bucket", bucket, "reference", reference)
					return v, nil
				}
				if errors.Is(err, domain.ErrVoucherTaken) {
					logger.Debug("Voucher taken concurrently, trying next", "voucher_id", c.ID, "reference", reference)
					continue
				}
				logger.ExitMethodWithError("inventoryService.Claim", err, "voucher_id", c.ID)
				return nil, err
			}
		}
	}

	err := fmt.Errorf("%w: %s at location %s", domain.ErrNoVoucherAvailable, plan, locationID)
	logger.ExitMethodWithError("inventoryService.Claim", err, "reference", reference)
	return nil, err
}

func (s *inventoryService) Stock(ctx context.Context, planName, locationID string) (*domain.Stock, error) {
	plan := domain.NormalizePlanKey(planName)
	if plan == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlan, planName)
	}

	unused := make([]int64, s.bucketCount)
	used := make([]int64, s.bucketCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i := 0; i < s.bucketCount; i++ {
		g.Go(func() error {
			u, us, err := s.voucherRepo.CountBucket(gctx, plan, i+1, locationID)
			if err != nil {
				return fmt.Errorf("count %s/%s: %w", plan, domain.BucketName(i+1), err)
			}
			unused[i], used[i] = u, us
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stock := &domain.Stock{PlanKey: plan, LocationID: locationID}
	for i := range unused {
		stock.Unused += unused[i]
		stock.Used += used[i]
	}
	return stock, nil
}

func (s *inventoryService) StockReport(ctx context.Context, locationID string) ([]domain.Stock, error) {
	plans := domain.Plans()
	report := make([]domain.Stock, 0, len(plans))
	for _, p := range plans {
		st, err := s.Stock(ctx, p.Key(), locationID)
		if err != nil {
			return nil, err
		}
		report = append(report, *st)
	}
	return report, nil
}

// Upload stores codes in the first bucket that still has room, then the next.
// Bucket capacity counts every location since a bucket is shared.
func (s *inventoryService) Upload(ctx context.Context, planName, locationID string, codes []string) (int, error) {
	logger.EnterMethod("inventoryService.Upload", "plan", planName, "location", locationID, "codes", len(codes))

	plan, err := domain.LookupPlan(planName)
	if err != nil {
		logger.ExitMethodWithError("inventoryService.Upload", err)
		return 0, err
	}
	if strings.TrimSpace(locationID) == "" {
		return 0, fmt.Errorf("location is required for voucher upload")
	}
	key := plan.Key()
	pending := cleanCodes(codes)

	inserted := 0
	for bucket := 1; bucket <= s.bucketCount && len(pending) > 0; bucket++ {
		unused, used, err := s.voucherRepo.CountBucket(ctx, key, bucket, "")
		if err != nil {
			logger.ExitMethodWithError("inventoryService.Upload", err, "bucket", bucket)
			return inserted, err
		}
		free := int64(s.bucketCapacity) - unused - used
		if free <= 0 {
			continue
		}
		n := min(int(free), len(pending))
		batch := make([]domain.Voucher, n)
		for i, code := range pending[:n] {
			batch[i] = domain.Voucher{Code: code, LocationID: locationID}
		}
		if err := s.voucherRepo.Insert(ctx, key, bucket, batch); err != nil {
			logger.ExitMethodWithError("inventoryService.Upload", err, "bucket", bucket, "inserted", inserted)
			return inserted, err
		}
		inserted += n
		pending = pending[n:]
		logger.Info("Vouchers stored", "plan", key, "bucket", bucket, "count", n, "location", locationID)
	}

	if len(pending) > 0 {
		err := fmt.Errorf("%w: %d of %d codes not stored", domain.ErrInventoryFull, len(pending), inserted+len(pending))
		logger.ExitMethodWithError("inventoryService.Upload", err)
		return inserted, err
	}
	logger.ExitMethod("inventoryService.Upload", "plan", key, "inserted", inserted)
	return inserted, nil
}

// cleanCodes trims codes and drops blanks and repeats, keeping first occurrence order.
func cleanCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
