package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/service"
)

func TestAuthMiddleware(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/balance", "", nil)
	assertStatus(t, rec, http.StatusUnauthorized)

	rec = f.do(http.MethodGet, "/api/v1/balance", "forged", nil)
	assertStatus(t, rec, http.StatusUnauthorized)

	rec = f.do(http.MethodGet, "/api/v1/admin/vouchers/stock", customerToken, nil)
	assertStatus(t, rec, http.StatusForbidden)

	rec = f.do(http.MethodGet, "/api/v1/plans", "", nil)
	assertStatus(t, rec, http.StatusOK)

	rec = f.do(http.MethodGet, "/health", "", nil)
	assertStatus(t, rec, http.StatusOK)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestCustomerHandler_CreateDeposit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.deposits.On("InitiateDeposit", mock.Anything, "user-1", domain.Kobo(500000), "paystack").Return(&domain.Transaction{
			Reference: "CTS_1718000000000_0042", Status: domain.StatusPending, Amount: 500000, PaymentGateway: domain.GatewayPaystack,
		}, nil)

		rec := f.do(http.MethodPost, "/api/v1/deposits", customerToken, jsonBody(`{"amount":5000,"gateway":"paystack"}`))
		assertStatus(t, rec, http.StatusCreated)
		assert.JSONEq(t, `{"reference":"CTS_1718000000000_0042","status":"pending","amount":500000,"gateway":"paystack"}`, rec.Body.String())
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		f := newFixture()
		f.deposits.On("InitiateDeposit", mock.Anything, "user-1", domain.Kobo(5000), "paystack").
			Return(nil, fmt.Errorf("%w: too small", domain.ErrInvalidAmount))

		rec := f.do(http.MethodPost, "/api/v1/deposits", customerToken, jsonBody(`{"amount":50,"gateway":"paystack"}`))
		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		f := newFixture()
		rec := f.do(http.MethodPost, "/api/v1/deposits", customerToken, jsonBody(`{"amount":"lots"}`))
		assertStatus(t, rec, http.StatusBadRequest)
		f.deposits.AssertNotCalled(t, "InitiateDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCustomerHandler_PurchasePlan(t *testing.T) {
	body := `{"plan":"Day King","paymentMethod":"balance","amount":2150}`

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.purchases.On("PurchasePlan", mock.Anything, "user-1", "Day King", "balance", domain.Kobo(215000)).Return(&service.PurchaseResult{
			TransactionReference: "CTS_1", VoucherCode: "DK-001", Status: domain.StatusSuccess, Plan: "Day King", Amount: 215000,
		}, nil)

		rec := f.do(http.MethodPost, "/api/v1/purchases", customerToken, jsonBody(body))
		assertStatus(t, rec, http.StatusOK)

		var res service.PurchaseResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "DK-001", res.VoucherCode)
		assert.Equal(t, domain.StatusSuccess, res.Status)
	})

	tests := []struct {
		name   string
		result *service.PurchaseResult
		err    error
		status int
	}{
		{"InsufficientBalance", &service.PurchaseResult{TransactionReference: "CTS_2", Status: domain.StatusFailed}, domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"NoVoucher", nil, fmt.Errorf("%w: day_king", domain.ErrNoVoucherAvailable), http.StatusConflict},
		{"AmountMismatch", nil, domain.ErrAmountMismatch, http.StatusBadRequest},
		{"UnknownPlan", nil, domain.ErrUnknownPlan, http.StatusBadRequest},
		{"Unexpected", nil, fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.purchases.On("PurchasePlan", mock.Anything, "user-1", "Day King", "balance", domain.Kobo(215000)).Return(tt.result, tt.err)

			rec := f.do(http.MethodPost, "/api/v1/purchases", customerToken, jsonBody(body))
			assertStatus(t, rec, tt.status)

			var res map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res["error"])
			if tt.result != nil {
				assert.Equal(t, tt.result.TransactionReference, res["transactionReference"])
			}
		})
	}
}

func TestCustomerHandler_Reads(t *testing.T) {
	t.Run("Balance", func(t *testing.T) {
		f := newFixture()
		f.ledger.On("GetBalance", mock.Anything, "user-1").Return(domain.Kobo(500000), nil)

		rec := f.do(http.MethodGet, "/api/v1/balance", customerToken, nil)
		assertStatus(t, rec, http.StatusOK)
		assert.JSONEq(t, `{"balance":500000,"balanceNaira":5000,"formatted":"₦5,000"}`, rec.Body.String())
	})

	t.Run("TransactionsPaged", func(t *testing.T) {
		f := newFixture()
		f.ledger.On("GetTransactions", mock.Anything, "user-1", int32(2), int32(100)).Return([]domain.Transaction{}, int32(0), nil)

		rec := f.do(http.MethodGet, "/api/v1/transactions?page=2&page_size=500", customerToken, nil)
		assertStatus(t, rec, http.StatusOK)
		assert.JSONEq(t, `{"transactions":[],"totalCount":0}`, rec.Body.String())
	})

	t.Run("ForeignTransaction", func(t *testing.T) {
		f := newFixture()
		f.ledger.On("GetTransaction", mock.Anything, "user-1", "CTS_9").Return(nil, domain.ErrNotOwner)

		rec := f.do(http.MethodGet, "/api/v1/transactions/CTS_9", customerToken, nil)
		assertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("CompletePurchase", func(t *testing.T) {
		f := newFixture()
		f.purchases.On("CompletePurchase", mock.Anything, "user-1", "CTS_3").Return(&service.PurchaseResult{
			TransactionReference: "CTS_3", Status: domain.StatusPending,
		}, nil)

		rec := f.do(http.MethodPost, "/api/v1/purchases/CTS_3/complete", customerToken, nil)
		assertStatus(t, rec, http.StatusOK)
		f.purchases.AssertExpectations(t)
	})

	t.Run("Notifications", func(t *testing.T) {
		f := newFixture()
		f.notifications.On("GetNotifications", mock.Anything, "user-1", int32(1), int32(20)).Return([]domain.Notification{
			{ID: "n1", UserID: "user-1", Message: "Your deposit of ₦5,000 was successful"},
		}, int32(1), nil)
		f.notifications.On("MarkAsRead", mock.Anything, "user-1", "n1").Return(nil)
		f.notifications.On("MarkAsRead", mock.Anything, "user-1", "n2").Return(domain.ErrNotificationNotFound)

		rec := f.do(http.MethodGet, "/api/v1/notifications", customerToken, nil)
		assertStatus(t, rec, http.StatusOK)
		assert.Contains(t, rec.Body.String(), "₦5,000")

		rec = f.do(http.MethodPost, "/api/v1/notifications/n1/read", customerToken, nil)
		assertStatus(t, rec, http.StatusNoContent)

		rec = f.do(http.MethodPost, "/api/v1/notifications/n2/read", customerToken, nil)
		assertStatus(t, rec, http.StatusNotFound)
	})
}
