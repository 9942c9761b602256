package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/security"
	"ctspark-backend/internal/service"
)

// fakeAuthenticator resolves fixed tokens.
type fakeAuthenticator map[string]*security.Principal

func (f fakeAuthenticator) Authenticate(ctx context.Context, token string) (*security.Principal, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, security.ErrInvalidToken
}

// MockReconcileService
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (service.Outcome, error) {
	args := m.Called(ctx, rawBody, signature)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *MockReconcileService) ReconcileReference(ctx context.Context, reference string) (service.Outcome, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(service.Outcome), args.Error(1)
}

// MockPurchaseService
type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) PurchasePlan(ctx context.Context, userID, planTitle, paymentMethod string, amountPaid domain.Kobo) (*service.PurchaseResult, error) {
	args := m.Called(ctx, userID, planTitle, paymentMethod, amountPaid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseResult), args.Error(1)
}

func (m *MockPurchaseService) CompletePurchase(ctx context.Context, userID, reference string) (*service.PurchaseResult, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseResult), args.Error(1)
}

func (m *MockPurchaseService) FulfilUnfulfilled(ctx context.Context, reference string) (*service.PurchaseResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseResult), args.Error(1)
}

// MockDepositService
type MockDepositService struct {
	mock.Mock
}

func (m *MockDepositService) InitiateDeposit(ctx context.Context, userID string, amount domain.Kobo, gateway string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, amount, gateway)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockLedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID string) (domain.Kobo, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Kobo), args.Error(1)
}

func (m *MockLedgerService) GetTransactions(ctx context.Context, userID string, page, pageSize int32) ([]domain.Transaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int32), args.Error(2)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, userID, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListByStatus(ctx context.Context, status domain.TransactionStatus, limit int32) ([]domain.Transaction, error) {
	args := m.Called(ctx, status, limit)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, userID string, typ domain.NotificationType, status string, amount domain.Kobo, message string) {
	m.Called(ctx, userID, typ, status, amount, message)
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

// MockInventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Claim(ctx context.Context, planName, locationID, userID, reference string) (*domain.Voucher, error) {
	args := m.Called(ctx, planName, locationID, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockInventoryService) Stock(ctx context.Context, planName, locationID string) (*domain.Stock, error) {
	args := m.Called(ctx, planName, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stock), args.Error(1)
}

func (m *MockInventoryService) StockReport(ctx context.Context, locationID string) ([]domain.Stock, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]domain.Stock), args.Error(1)
}

func (m *MockInventoryService) Upload(ctx context.Context, planName, locationID string, codes []string) (int, error) {
	args := m.Called(ctx, planName, locationID, codes)
	return args.Int(0), args.Error(1)
}
