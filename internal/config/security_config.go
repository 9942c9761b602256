// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityCustomer                      // Any signed-in user
	SecurityAdmin                         // Admin claim or role required
)

// Route names registered on the HTTP router.
const (
	RouteHealth               = "health"
	RoutePlans                = "plans.list"
	RouteWebhook              = "webhook"
	RouteCreateDeposit        = "deposits.create"
	RoutePurchasePlan         = "purchases.create"
	RouteCompletePurchase     = "purchases.complete"
	RouteGetBalance           = "balance.get"
	RouteListTransactions     = "transactions.list"
	RouteGetTransaction       = "transactions.get"
	RouteListNotifications    = "notifications.list"
	RouteMarkNotificationRead = "notifications.read"
	RouteAdminUploadVouchers  = "admin.vouchers.upload"
	RouteAdminVoucherStock    = "admin.vouchers.stock"
	RouteAdminTransactions    = "admin.transactions.list"
	RouteAdminFulfil          = "admin.transactions.fulfil"
	RouteAdminReconcile       = "admin.transactions.reconcile"
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	RouteHealth: SecurityPublic,
	RoutePlans:  SecurityPublic,
	// The webhook authenticates itself with the body signature.
	RouteWebhook: SecurityPublic,

	// Customer
	RouteCreateDeposit:        SecurityCustomer,
	RoutePurchasePlan:         SecurityCustomer,
	RouteCompletePurchase:     SecurityCustomer,
	RouteGetBalance:           SecurityCustomer,
	RouteListTransactions:     SecurityCustomer,
	RouteGetTransaction:       SecurityCustomer,
	RouteListNotifications:    SecurityCustomer,
	RouteMarkNotificationRead: SecurityCustomer,

	// Admin
	RouteAdminUploadVouchers: SecurityAdmin,
	RouteAdminVoucherStock:   SecurityAdmin,
	RouteAdminTransactions:   SecurityAdmin,
	RouteAdminFulfil:         SecurityAdmin,
	RouteAdminReconcile:      SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
