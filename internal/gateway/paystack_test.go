package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
)

func newPaystack(t *testing.T, handler http.HandlerFunc) gateway.Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewPaystack(gateway.Options{BaseURL: srv.URL, SecretKey: "sk_test", RatePerSecond: 1000, Burst: 10})
}

func TestPaystack_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/CTS_LOC1_0042", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
			w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"CTS_LOC1_0042","amount":500000,"currency":"NGN","gateway_response":"Successful","paid_at":"2026-06-01T10:00:00.000Z","customer":{"email":"a@ctspark.ng"}}}`))
		})

		v, err := c.Verify(ctx, "CTS_LOC1_0042")
		require.NoError(t, err)
		assert.Equal(t, gateway.StatusSuccess, v.Status)
		assert.Equal(t, domain.FromNaira(5000), v.Amount)
		assert.Equal(t, "a@ctspark.ng", v.CustomerEmail)
		require.NotNil(t, v.PaidAt)
		assert.Equal(t, 2026, v.PaidAt.Year())
	})

	t.Run("StatusMapping", func(t *testing.T) {
		cases := map[string]gateway.Status{
			"success":    gateway.StatusSuccess,
			"failed":     gateway.StatusFailed,
			"abandoned":  gateway.StatusFailed,
			"reversed":   gateway.StatusFailed,
			"ongoing":    gateway.StatusPending,
			"processing": gateway.StatusPending,
			"queued":     gateway.StatusPending,
		}
		for raw, want := range cases {
			c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":true,"data":{"status":"` + raw + `","reference":"R1","amount":100}}`))
			})
			v, err := c.Verify(ctx, "R1")
			require.NoError(t, err, raw)
			assert.Equal(t, want, v.Status, raw)
		}
	})

	t.Run("ServerErrorIsRetryable", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	})

	t.Run("RateLimitedIsRetryable", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	})

	t.Run("NotFoundFailsVerification", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrVerificationFailed)
	})

	t.Run("StatusFalse", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrVerificationFailed)
	})

	t.Run("ReferenceMismatch", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":true,"data":{"status":"success","reference":"OTHER","amount":100}}`))
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrVerificationFailed)
	})

	t.Run("UndecodableBody", func(t *testing.T) {
		c := newPaystack(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		})
		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrVerificationFailed)
	})

	t.Run("TimeoutIsRetryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()
		c := gateway.NewPaystack(gateway.Options{BaseURL: srv.URL, SecretKey: "sk_test", Timeout: 20 * time.Millisecond})

		_, err := c.Verify(ctx, "R1")
		assert.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	})
}
