package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ctspark-backend/internal/domain"
)

const FlutterwaveBaseURL = "https://api.flutterwave.com/v3"

type flutterwaveClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewFlutterwave(opts Options) Verifier {
	base := opts.BaseURL
	if base == "" {
		base = FlutterwaveBaseURL
	}
	return &flutterwaveClient{
		baseURL:   strings.TrimRight(base, "/"),
		secretKey: opts.SecretKey,
		http:      opts.httpClient(),
		limiter:   opts.limiter(),
	}
}

func (c *flutterwaveClient) Name() domain.PaymentGateway { return domain.GatewayFlutterwave }

// Flutterwave reports amounts in naira.
type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TxRef             string     `json:"tx_ref"`
		Amount            float64    `json:"amount"`
		Currency          string     `json:"currency"`
		Status            string     `json:"status"`
		ProcessorResponse string     `json:"processor_response"`
		CreatedAt         *time.Time `json:"created_at"`
		Customer          struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

func flutterwaveStatus(s string) Status {
	switch strings.ToLower(s) {
	case "successful":
		return StatusSuccess
	case "failed", "cancelled":
		return StatusFailed
	default:
		return StatusPending
	}
}

func (c *flutterwaveClient) Verify(ctx context.Context, reference string) (*Verification, error) {
	endpoint := c.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	body, err := fetch(ctx, c.http, c.limiter, "flutterwave", endpoint, "Bearer "+c.secretKey)
	if err != nil {
		return nil, err
	}

	var resp flutterwaveVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode flutterwave response: %v", ErrVerificationFailed, err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: flutterwave: %s", ErrVerificationFailed, resp.Message)
	}
	if resp.Data.TxRef != reference {
		return nil, fmt.Errorf("%w: flutterwave returned reference %q for %q", ErrVerificationFailed, resp.Data.TxRef, reference)
	}

	v := &Verification{
		Gateway:         domain.GatewayFlutterwave,
		Reference:       resp.Data.TxRef,
		Status:          flutterwaveStatus(resp.Data.Status),
		Amount:          domain.FromNaira(resp.Data.Amount),
		Currency:        resp.Data.Currency,
		CustomerEmail:   resp.Data.Customer.Email,
		GatewayResponse: resp.Data.ProcessorResponse,
		Raw:             body,
	}
	if v.Status == StatusSuccess {
		v.PaidAt = resp.Data.CreatedAt
	}
	return v, nil
}
