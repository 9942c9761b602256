package http_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	httpapi "ctspark-backend/internal/api/http"
)

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
)

type fixture struct {
	router        *mux.Router
	ledger        *MockLedgerService
	notifications *MockNotificationService
	inventory     *MockInventoryService
	deposits      *MockDepositService
	purchases     *MockPurchaseService
	reconciler    *MockReconcileService
}

func newFixture() *fixture {
	f := &fixture{
		ledger:        new(MockLedgerService),
		notifications: new(MockNotificationService),
		inventory:     new(MockInventoryService),
		deposits:      new(MockDepositService),
		purchases:     new(MockPurchaseService),
		reconciler:    new(MockReconcileService),
	}
	f.router = httpapi.NewRouter(httpapi.Services{
		Ledger:        f.ledger,
		Notifications: f.notifications,
		Inventory:     f.inventory,
		Deposits:      f.deposits,
		Purchases:     f.purchases,
		Reconciler:    f.reconciler,
	}, fakeAuthenticator{
		customerToken: {UserID: "user-1", Email: "user@ctspark.ng"},
		adminToken:    {UserID: "op-1", Admin: true},
	})
	return f
}

func (f *fixture) do(method, path, token string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
