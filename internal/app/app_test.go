package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/config"
	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/service"
)

const testSecret = "sk_test_0123456789abcdef0123456789abcdef"

func memoryConfig(t *testing.T, paystackURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Storage.Type = config.StorageMemory
	cfg.Auth.Mode = config.AuthModeJWT
	cfg.Auth.JWTSecret = "a-jwt-secret-that-is-long-enough-for-tests"
	cfg.Paystack.Enabled = true
	cfg.Paystack.SecretKey = testSecret
	cfg.Paystack.BaseURL = paystackURL
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_DepositSettlesThroughWebhook(t *testing.T) {
	ctx := context.Background()

	var reference string
	paystack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testSecret, r.Header.Get("Authorization"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/transaction/verify/"+reference))
		fmt.Fprintf(w, `{"status":true,"message":"Verification successful","data":{"status":"success","reference":%q,"amount":500000,"currency":"NGN","customer":{"email":"ada@ctspark.ng"}}}`, reference)
	}))
	defer paystack.Close()

	a, err := New(ctx, memoryConfig(t, paystack.URL))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Store.UserRepository.Create(ctx, &domain.User{ID: "user-1", Email: "ada@ctspark.ng", LocationID: "loc1"}))

	tx, err := a.Deposits.InitiateDeposit(ctx, "user-1", domain.FromNaira(5000), "paystack")
	require.NoError(t, err)
	reference = tx.Reference

	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":500000}}`, reference))
	outcome, err := a.Reconciler.HandleWebhook(ctx, body, gateway.Sign(body, testSecret))
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSucceeded, outcome)

	balance, err := a.Ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Kobo(500000), balance)

	notes, total, err := a.Notifications.GetNotifications(ctx, "user-1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, "Your deposit of ₦5,000 was successful", notes[0].Message)
}

func TestAuthenticator_JWT(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t, ""))
	require.NoError(t, err)

	auth, err := a.Authenticator(ctx)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestNew_UnsupportedStorage(t *testing.T) {
	cfg := memoryConfig(t, "")
	cfg.Storage.Type = "mongo"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported storage type")
}

func TestBuildVerifiers(t *testing.T) {
	cfg := memoryConfig(t, "")
	cfg.Flutterwave.Enabled = true
	cfg.Flutterwave.SecretKey = "FLWSECK_TEST-x"

	verifiers, enabled := buildVerifiers(cfg)
	require.Len(t, verifiers, 2)
	assert.Equal(t, domain.GatewayPaystack, verifiers[0].Name())
	assert.Equal(t, domain.GatewayFlutterwave, verifiers[1].Name())
	assert.Equal(t, []domain.PaymentGateway{domain.GatewayPaystack, domain.GatewayFlutterwave}, enabled)
}
