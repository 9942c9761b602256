package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/service"
)

type CustomerHandler struct {
	ledgerSvc   service.LedgerService
	noteSvc     service.NotificationService
	depositSvc  service.DepositService
	purchaseSvc service.PurchaseService
}

func NewCustomerHandler(
	ledgerSvc service.LedgerService,
	noteSvc service.NotificationService,
	depositSvc service.DepositService,
	purchaseSvc service.PurchaseService,
) *CustomerHandler {
	return &CustomerHandler{
		ledgerSvc:   ledgerSvc,
		noteSvc:     noteSvc,
		depositSvc:  depositSvc,
		purchaseSvc: purchaseSvc,
	}
}

type planResponse struct {
	domain.Plan
	PriceNaira float64 `json:"priceNaira"`
}

func (h *CustomerHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := domain.Plans()
	out := make([]planResponse, len(plans))
	for i, p := range plans {
		out[i] = planResponse{Plan: p, PriceNaira: p.Price.Naira()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

// Amounts arrive in naira and are converted to kobo once, here.
type depositRequest struct {
	Amount  float64 `json:"amount"`
	Gateway string  `json:"gateway"`
}

type depositResponse struct {
	Reference string                   `json:"reference"`
	Status    domain.TransactionStatus `json:"status"`
	Amount    domain.Kobo              `json:"amount"`
	Gateway   domain.PaymentGateway    `json:"gateway"`
}

func (h *CustomerHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var req depositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.depositSvc.InitiateDeposit(r.Context(), p.UserID, domain.FromNaira(req.Amount), req.Gateway)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{
		Reference: tx.Reference,
		Status:    tx.Status,
		Amount:    tx.Amount,
		Gateway:   tx.PaymentGateway,
	})
}

type purchaseRequest struct {
	Plan          string  `json:"plan"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
}

func (h *CustomerHandler) PurchasePlan(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.purchaseSvc.PurchasePlan(r.Context(), p.UserID, req.Plan, req.PaymentMethod, domain.FromNaira(req.Amount))
	if err != nil {
		var ref string
		if res != nil {
			ref = res.TransactionReference
		}
		writeServiceError(w, r, err, ref)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CustomerHandler) CompletePurchase(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	ref := mux.Vars(r)["reference"]

	res, err := h.purchaseSvc.CompletePurchase(r.Context(), p.UserID, ref)
	if err != nil {
		writeServiceError(w, r, err, ref)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type balanceResponse struct {
	Balance   domain.Kobo `json:"balance"`
	Naira     float64     `json:"balanceNaira"`
	Formatted string      `json:"formatted"`
}

func (h *CustomerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	balance, err := h.ledgerSvc.GetBalance(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance, Naira: balance.Naira(), Formatted: balance.String()})
}

func (h *CustomerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	page, pageSize := pagination(r)
	txs, count, err := h.ledgerSvc.GetTransactions(r.Context(), p.UserID, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "totalCount": count})
}

func (h *CustomerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	ref := mux.Vars(r)["reference"]
	tx, err := h.ledgerSvc.GetTransaction(r.Context(), p.UserID, ref)
	if err != nil {
		writeServiceError(w, r, err, ref)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *CustomerHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	page, pageSize := pagination(r)
	notes, count, err := h.noteSvc.GetNotifications(r.Context(), p.UserID, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes, "totalCount": count})
}

func (h *CustomerHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	if err := h.noteSvc.MarkAsRead(r.Context(), p.UserID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
