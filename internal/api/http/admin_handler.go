package http

import (
	"bufio"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/service"
)

const maxVoucherUploadSize = 5 << 20

type AdminHandler struct {
	inventorySvc service.InventoryService
	ledgerSvc    service.LedgerService
	purchaseSvc  service.PurchaseService
	reconciler   service.ReconcileService
}

func NewAdminHandler(
	inventorySvc service.InventoryService,
	ledgerSvc service.LedgerService,
	purchaseSvc service.PurchaseService,
	reconciler service.ReconcileService,
) *AdminHandler {
	return &AdminHandler{
		inventorySvc: inventorySvc,
		ledgerSvc:    ledgerSvc,
		purchaseSvc:  purchaseSvc,
		reconciler:   reconciler,
	}
}

// UploadVouchers takes a text body with one code per line.
func (h *AdminHandler) UploadVouchers(w http.ResponseWriter, r *http.Request) {
	plan := mux.Vars(r)["plan"]
	location := r.URL.Query().Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVoucherUploadSize)
	var codes []string
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		codes = append(codes, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "voucher file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read voucher codes")
		return
	}

	inserted, err := h.inventorySvc.Upload(r.Context(), plan, location, codes)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("Voucher upload failed", "plan", plan, "location", location, "inserted", inserted, "error", err)
		}
		writeJSON(w, status, map[string]any{"error": err.Error(), "inserted": inserted})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"inserted": inserted})
}

func (h *AdminHandler) VoucherStock(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	report, err := h.inventorySvc.StockReport(r.Context(), location)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": location, "stock": report})
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	status := domain.TransactionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusUnfulfilled
	}
	switch status {
	case domain.StatusPending, domain.StatusUnfulfilled, domain.StatusSuccess, domain.StatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	limit := int32(defaultPageSize)
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = int32(min(v, maxPageSize))
	}

	txs, err := h.ledgerSvc.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (h *AdminHandler) Fulfil(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["reference"]
	res, err := h.purchaseSvc.FulfilUnfulfilled(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err, ref)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["reference"]
	outcome, err := h.reconciler.ReconcileReference(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err, ref)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reference": ref, "outcome": outcome})
}
