package config_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/config"
	"ctspark-backend/internal/gateway"
)

const baseYAML = `
server:
  port: 8080
storage:
  type: memory
auth:
  mode: jwt
  jwt_secret: 0123456789abcdef0123456789abcdef
paystack:
  enabled: true
  secret_key: sk_test_paystack
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.Storage.Type)
	assert.Equal(t, "paystack", cfg.Reconciler.WebhookGateway)
	assert.Equal(t, "sk_test_paystack", cfg.Reconciler.WebhookSecret)
	assert.Equal(t, 15*time.Minute, cfg.StaleAfter())
	assert.Equal(t, 24*time.Hour, cfg.AbandonAfter())
	assert.Equal(t, 50, cfg.Reconciler.BatchSize)
	assert.Equal(t, 20, cfg.Vouchers.BucketCount)
	assert.Equal(t, 500, cfg.Vouchers.BucketCapacity)
	assert.Equal(t, 5, cfg.Vouchers.LowStockThreshold)
	assert.Equal(t, "0 */10 * * * *", cfg.Scheduler.ReconcilePending)
	assert.Equal(t, "0 0 7 * * *", cfg.Scheduler.CheckVoucherStock)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.GetServerAddress())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_live_from_env")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPERATOR_EMAILS", "ops@ctspark.ng, noc@ctspark.ng ,")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Load(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "sk_live_from_env", cfg.Paystack.SecretKey)
	assert.Equal(t, "sk_live_from_env", cfg.Reconciler.WebhookSecret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"ops@ctspark.ng", "noc@ctspark.ng"}, cfg.SendGrid.OperatorEmails)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate_FatalSettings(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server:   config.ServerConfig{Port: 8080},
			Auth:     config.AuthConfig{Mode: config.AuthModeJWT, JWTSecret: "0123456789abcdef0123456789abcdef"},
			Paystack: config.GatewayConfig{Enabled: true, SecretKey: "sk_test"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"MissingGatewaySecret", func(c *config.Config) { c.Paystack.SecretKey = "" }},
		{"NoGateway", func(c *config.Config) { c.Paystack.Enabled = false }},
		{"WebhookGatewayDisabled", func(c *config.Config) { c.Reconciler.WebhookGateway = "flutterwave" }},
		{"ShortJWTSecret", func(c *config.Config) { c.Auth.JWTSecret = "short" }},
		{"FirebaseAuthWithoutProject", func(c *config.Config) { c.Auth.Mode = config.AuthModeFirebase }},
		{"PostgresWithoutHost", func(c *config.Config) { c.Storage.Type = config.StoragePostgres }},
		{"FirestoreWithoutProject", func(c *config.Config) { c.Storage.Type = config.StorageFirestore }},
		{"UnknownStorage", func(c *config.Config) { c.Storage.Type = "mongo" }},
		{"BadPort", func(c *config.Config) { c.Server.Port = 70000 }},
		{"AbandonBeforeStale", func(c *config.Config) {
			c.Reconciler.StaleAfterMinutes = 60
			c.Reconciler.AbandonAfterMinutes = 30
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, config.SecurityPublic, config.GetSecurityLevel(config.RouteWebhook))
	assert.Equal(t, config.SecurityCustomer, config.GetSecurityLevel(config.RoutePurchasePlan))
	assert.Equal(t, config.SecurityAdmin, config.GetSecurityLevel(config.RouteAdminFulfil))
	assert.Equal(t, config.SecurityAdmin, config.GetSecurityLevel("unregistered"))
}

// recordingTransport captures outbound requests without touching the network.
type recordingTransport struct {
	urls []string
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.urls = append(rt.urls, r.URL.String())
	return nil, errors.New("offline")
}

func TestLoad_GatewayDefaultsReachVerifyEndpoints(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, baseYAML+`
flutterwave:
  enabled: true
  secret_key: FLWSECK_TEST-x
`))
	require.NoError(t, err)
	assert.Equal(t, "https://api.flutterwave.com/v3", cfg.Flutterwave.BaseURL)

	rt := &recordingTransport{}
	client := &http.Client{Transport: rt}
	flw := gateway.NewFlutterwave(gateway.Options{BaseURL: cfg.Flutterwave.BaseURL, SecretKey: "k", HTTPClient: client})
	paystack := gateway.NewPaystack(gateway.Options{BaseURL: cfg.Paystack.BaseURL, SecretKey: "k", HTTPClient: client})

	_, err = flw.Verify(context.Background(), "CTS_1_0001")
	assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	_, err = paystack.Verify(context.Background(), "CTS_1_0001")
	assert.Error(t, err)

	assert.Equal(t, []string{
		"https://api.flutterwave.com/v3/transactions/verify_by_reference?tx_ref=CTS_1_0001",
		"https://api.paystack.co/transaction/verify/CTS_1_0001",
	}, rt.urls)
}
