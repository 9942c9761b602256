package http

import (
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/service"
)

const MaxWebhookBodySize = 1 << 20 // 1 MB

type WebhookHandler struct {
	reconciler service.ReconcileService
}

func NewWebhookHandler(reconciler service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleWebhook hashes the body exactly as received. Anything processed or
// deliberately ignored is acknowledged with 200 so the gateway stops retrying.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	signature := r.Header.Get("X-Signature")
	if signature == "" {
		signature = r.Header.Get("X-Paystack-Signature")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxWebhookBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Webhook body too large", "request_id", requestID, "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logger.Warn("Failed to read webhook body", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, "Error reading request body")
		return
	}

	outcome, err := h.reconciler.HandleWebhook(ctx, raw, signature)
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		logger.Warn("Webhook signature rejected", "request_id", requestID, "signature_present", signature != "", "remote_addr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	case errors.Is(err, domain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	case err != nil:
		logger.Error("Webhook processing failed, acknowledging", "request_id", requestID, "outcome", outcome, "error", err)
	default:
		logger.Info("Webhook processed", "request_id", requestID, "outcome", outcome)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
