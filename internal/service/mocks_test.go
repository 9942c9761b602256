package service_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
)

type MockVerifier struct {
	mock.Mock
	name domain.PaymentGateway
}

func NewMockVerifier(name domain.PaymentGateway) *MockVerifier {
	return &MockVerifier{name: name}
}

func (m *MockVerifier) Name() domain.PaymentGateway { return m.name }

func (m *MockVerifier) Verify(ctx context.Context, reference string) (*gateway.Verification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Verification), args.Error(1)
}

// recordingAlerts keeps every alert so tests can assert on them.
type recordingAlerts struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingAlerts) SendOperatorAlert(ctx context.Context, subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recordingAlerts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

type MockVoucherRepo struct {
	mock.Mock
}

func (m *MockVoucherRepo) FindUnused(ctx context.Context, planKey string, bucket int, locationID string, limit int) ([]domain.Voucher, error) {
	args := m.Called(ctx, planKey, bucket, locationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Voucher), args.Error(1)
}

func (m *MockVoucherRepo) MarkUsed(ctx context.Context, v domain.Voucher, claim domain.Claim) (*domain.Voucher, error) {
	args := m.Called(ctx, v, claim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherRepo) CountBucket(ctx context.Context, planKey string, bucket int, locationID string) (int64, int64, error) {
	args := m.Called(ctx, planKey, bucket, locationID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockVoucherRepo) Insert(ctx context.Context, planKey string, bucket int, vouchers []domain.Voucher) error {
	args := m.Called(ctx, planKey, bucket, vouchers)
	return args.Error(0)
}

type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) Claim(ctx context.Context, planName, locationID, userID, reference string) (*domain.Voucher, error) {
	args := m.Called(ctx, planName, locationID, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockInventory) Stock(ctx context.Context, planName, locationID string) (*domain.Stock, error) {
	args := m.Called(ctx, planName, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stock), args.Error(1)
}

func (m *MockInventory) StockReport(ctx context.Context, locationID string) ([]domain.Stock, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]domain.Stock), args.Error(1)
}

func (m *MockInventory) Upload(ctx context.Context, planName, locationID string, codes []string) (int, error) {
	args := m.Called(ctx, planName, locationID, codes)
	return args.Int(0), args.Error(1)
}
