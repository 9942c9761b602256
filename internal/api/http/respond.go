package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxJSONBodySize = 64 << 10
)

type errorResponse struct {
	Error                string `json:"error"`
	TransactionReference string `json:"transactionReference,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownPlan),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrUnsupportedGateway),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoLocation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoVoucherAvailable),
		errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrInventoryFull):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrVerificationFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, reference string) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "reference", reference, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg, TransactionReference: reference})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func pagination(r *http.Request) (page, pageSize int32) {
	page, pageSize = 1, defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		pageSize = int32(min(v, maxPageSize))
	}
	return page, pageSize
}
