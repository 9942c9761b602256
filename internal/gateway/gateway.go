// Package gateway talks to the payment gateways: it authenticates webhooks and
// re-verifies transactions by reference, which is the only source of truth for
// whether money was actually captured.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"ctspark-backend/internal/domain"
)

var (
	// ErrGatewayUnavailable is retryable; the transaction stays pending.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Status is the gateway's authoritative verdict, normalized across gateways.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

type Verification struct {
	Gateway         domain.PaymentGateway
	Reference       string
	Status          Status
	Amount          domain.Kobo
	Currency        string
	CustomerEmail   string
	GatewayResponse string
	PaidAt          *time.Time
	Raw             []byte
}

// Details converts the verification into the echo stored on the transaction.
func (v *Verification) Details() *domain.PaymentDetails {
	return &domain.PaymentDetails{
		Gateway:         v.Gateway,
		Reference:       v.Reference,
		Amount:          v.Amount,
		Currency:        v.Currency,
		CustomerEmail:   v.CustomerEmail,
		GatewayResponse: v.GatewayResponse,
		PaidAt:          v.PaidAt,
		Raw:             string(v.Raw),
	}
}

// Verifier re-checks a reference with the gateway that processed it.
type Verifier interface {
	Name() domain.PaymentGateway
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// Options configure an HTTP verifier. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// RatePerSecond bounds outbound verify calls; Burst defaults to 1.
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

const (
	defaultTimeout = 10 * time.Second
	defaultRate    = 10
)

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) limiter() *rate.Limiter {
	r := o.RatePerSecond
	if r <= 0 {
		r = defaultRate
	}
	burst := o.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(r), burst)
}

// classify maps an HTTP status to the retryable/non-retryable error split.
func classify(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return ErrGatewayUnavailable
	default:
		return ErrVerificationFailed
	}
}
