package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
)

const PaystackBaseURL = "https://api.paystack.co"

type paystackClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewPaystack(opts Options) Verifier {
	base := opts.BaseURL
	if base == "" {
		base = PaystackBaseURL
	}
	return &paystackClient{
		baseURL:   strings.TrimRight(base, "/"),
		secretKey: opts.SecretKey,
		http:      opts.httpClient(),
		limiter:   opts.limiter(),
	}
}

func (c *paystackClient) Name() domain.PaymentGateway { return domain.GatewayPaystack }

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string     `json:"status"`
		Reference       string     `json:"reference"`
		Amount          int64      `json:"amount"`
		Currency        string     `json:"currency"`
		GatewayResponse string     `json:"gateway_response"`
		PaidAt          *time.Time `json:"paid_at"`
		Customer        struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

func paystackStatus(s string) Status {
	switch strings.ToLower(s) {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusPending
	}
}

func (c *paystackClient) Verify(ctx context.Context, reference string) (*Verification, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	body, err := fetch(ctx, c.http, c.limiter, "paystack", endpoint, "Bearer "+c.secretKey)
	if err != nil {
		return nil, err
	}

	var resp paystackVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode paystack response: %v", ErrVerificationFailed, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: paystack: %s", ErrVerificationFailed, resp.Message)
	}
	if resp.Data.Reference != reference {
		return nil, fmt.Errorf("%w: paystack returned reference %q for %q", ErrVerificationFailed, resp.Data.Reference, reference)
	}

	return &Verification{
		Gateway:         domain.GatewayPaystack,
		Reference:       resp.Data.Reference,
		Status:          paystackStatus(resp.Data.Status),
		Amount:          domain.Kobo(resp.Data.Amount),
		Currency:        resp.Data.Currency,
		CustomerEmail:   resp.Data.Customer.Email,
		GatewayResponse: resp.Data.GatewayResponse,
		PaidAt:          resp.Data.PaidAt,
		Raw:             body,
	}, nil
}

// fetch performs one rate-limited authenticated GET and returns the 200 body.
func fetch(ctx context.Context, client *http.Client, limiter *rate.Limiter, service, endpoint, authorization string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	logger.ExternalServiceCall(service, "Verify", "url", endpoint)
	resp, err := client.Do(req)
	if err != nil {
		logger.ExternalServiceResult(service, "Verify", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logger.ExternalServiceResult(service, "Verify", err, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	if err := classify(resp.StatusCode); err != nil {
		err = fmt.Errorf("%w: %s returned HTTP %d", err, service, resp.StatusCode)
		logger.ExternalServiceResult(service, "Verify", err, "status", resp.StatusCode)
		return nil, err
	}
	logger.ExternalServiceResult(service, "Verify", nil, "status", resp.StatusCode)
	return body, nil
}
