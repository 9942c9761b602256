package http

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"ctspark-backend/internal/config"
	"ctspark-backend/internal/security"
	"ctspark-backend/internal/service"
)

// Services holds the service dependencies of the HTTP API
type Services struct {
	Ledger        service.LedgerService
	Notifications service.NotificationService
	Inventory     service.InventoryService
	Deposits      service.DepositService
	Purchases     service.PurchaseService
	Reconciler    service.ReconcileService
}

// NewRouter registers every route under its name in config.EndpointSecurityConfig.
func NewRouter(svcs Services, authenticator security.Authenticator) *mux.Router {
	webhook := NewWebhookHandler(svcs.Reconciler)
	customer := NewCustomerHandler(svcs.Ledger, svcs.Notifications, svcs.Deposits, svcs.Purchases)
	admin := NewAdminHandler(svcs.Inventory, svcs.Ledger, svcs.Purchases, svcs.Reconciler)

	r := mux.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, requestLogger, chimiddleware.Recoverer)
	r.Use(NewAuthMiddleware(authenticator).Handler)

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet).Name(config.RouteHealth)
	// No method matcher: the handler answers 405 itself.
	r.HandleFunc("/webhook", webhook.HandleWebhook).Name(config.RouteWebhook)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/plans", customer.ListPlans).Methods(http.MethodGet).Name(config.RoutePlans)
	v1.HandleFunc("/deposits", customer.CreateDeposit).Methods(http.MethodPost).Name(config.RouteCreateDeposit)
	v1.HandleFunc("/purchases", customer.PurchasePlan).Methods(http.MethodPost).Name(config.RoutePurchasePlan)
	v1.HandleFunc("/purchases/{reference}/complete", customer.CompletePurchase).Methods(http.MethodPost).Name(config.RouteCompletePurchase)
	v1.HandleFunc("/balance", customer.GetBalance).Methods(http.MethodGet).Name(config.RouteGetBalance)
	v1.HandleFunc("/transactions", customer.ListTransactions).Methods(http.MethodGet).Name(config.RouteListTransactions)
	v1.HandleFunc("/transactions/{reference}", customer.GetTransaction).Methods(http.MethodGet).Name(config.RouteGetTransaction)
	v1.HandleFunc("/notifications", customer.ListNotifications).Methods(http.MethodGet).Name(config.RouteListNotifications)
	v1.HandleFunc("/notifications/{id}/read", customer.MarkNotificationRead).Methods(http.MethodPost).Name(config.RouteMarkNotificationRead)

	adm := v1.PathPrefix("/admin").Subrouter()
	adm.HandleFunc("/vouchers/stock", admin.VoucherStock).Methods(http.MethodGet).Name(config.RouteAdminVoucherStock)
	adm.HandleFunc("/vouchers/{plan}", admin.UploadVouchers).Methods(http.MethodPost).Name(config.RouteAdminUploadVouchers)
	adm.HandleFunc("/transactions", admin.ListTransactions).Methods(http.MethodGet).Name(config.RouteAdminTransactions)
	adm.HandleFunc("/transactions/{reference}/fulfil", admin.Fulfil).Methods(http.MethodPost).Name(config.RouteAdminFulfil)
	adm.HandleFunc("/transactions/{reference}/reconcile", admin.Reconcile).Methods(http.MethodPost).Name(config.RouteAdminReconcile)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
