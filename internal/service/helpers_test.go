package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/repository"
	"ctspark-backend/internal/repository/memory"
	"ctspark-backend/internal/service"
)

const webhookSecret = "sk_test_webhook"

type harness struct {
	store      *repository.Store
	paystack   *MockVerifier
	alerts     *recordingAlerts
	inventory  service.InventoryService
	notifier   service.NotificationService
	reconciler service.ReconcileService
	purchases  service.PurchaseService
	deposits   service.DepositService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    memory.NewStore(),
		paystack: NewMockVerifier(domain.GatewayPaystack),
		alerts:   &recordingAlerts{},
	}
	h.inventory = service.NewInventoryService(h.store.VoucherRepository, 3, 10)
	h.notifier = service.NewNotificationService(h.store.NotificationRepository)
	h.reconciler = service.NewReconcileService(
		service.ReconcileConfig{WebhookSecret: webhookSecret, WebhookGateway: domain.GatewayPaystack},
		h.store.LedgerRepository, h.inventory, h.notifier, h.alerts, h.paystack,
	)
	h.purchases = service.NewPurchaseService(h.store.UserRepository, h.store.LedgerRepository, h.inventory, h.reconciler, h.notifier, h.alerts, domain.GatewayPaystack)
	h.deposits = service.NewDepositService(h.store.UserRepository, h.store.LedgerRepository, domain.GatewayPaystack)
	return h
}

func (h *harness) addUser(t *testing.T, id, location string, balance domain.Kobo) {
	t.Helper()
	require.NoError(t, h.store.UserRepository.Create(context.Background(), &domain.User{
		ID: id, Email: id + "@ctspark.ng", LocationID: location, Balance: balance,
	}))
}

func (h *harness) addTransaction(t *testing.T, tx domain.Transaction) {
	t.Helper()
	if tx.Status == "" {
		tx.Status = domain.StatusPending
	}
	if tx.PaymentGateway == "" {
		tx.PaymentGateway = domain.GatewayPaystack
	}
	require.NoError(t, h.store.CreateTransaction(context.Background(), &tx))
}

func (h *harness) stockVouchers(t *testing.T, plan, location string, n int) {
	t.Helper()
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("%s-%s-%03d", domain.NormalizePlanKey(plan), location, i)
	}
	_, err := h.inventory.Upload(context.Background(), plan, location, codes)
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, userID string) domain.Kobo {
	t.Helper()
	b, err := h.store.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (h *harness) transaction(t *testing.T, reference string) *domain.Transaction {
	t.Helper()
	tx, err := h.store.GetByReference(context.Background(), reference)
	require.NoError(t, err)
	return tx
}

func (h *harness) notifications(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	notes, _, err := h.notifier.GetNotifications(context.Background(), userID, 1, 50)
	require.NoError(t, err)
	return notes
}

func chargeEvent(event, reference string, amount domain.Kobo) ([]byte, string) {
	body := []byte(fmt.Sprintf(`{"event":%q,"data":{"reference":%q,"amount":%d,"customer":{"email":"payer@ctspark.ng"}}}`, event, reference, amount))
	return body, gateway.Sign(body, webhookSecret)
}

func verified(reference string, status gateway.Status, amount domain.Kobo) *gateway.Verification {
	return &gateway.Verification{
		Gateway:       domain.GatewayPaystack,
		Reference:     reference,
		Status:        status,
		Amount:        amount,
		Currency:      "NGN",
		CustomerEmail: "payer@ctspark.ng",
	}
}
