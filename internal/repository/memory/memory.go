// Package memory is an in-process storage backend for local development and tests.
// All repositories share one mutex so every guarded write is trivially atomic.
package memory

import (
	"sync"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/repository"
)

type db struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	transactions  map[string]*domain.Transaction // by reference
	vouchers      map[string]map[int][]*domain.Voucher
	codes         map[string]map[string]bool        // plan key -> stored codes
	notifications map[string][]*domain.Notification // by user
}

// NewStore returns an empty in-memory store.
func NewStore() *repository.Store {
	d := &db{
		users:         make(map[string]*domain.User),
		transactions:  make(map[string]*domain.Transaction),
		vouchers:      make(map[string]map[int][]*domain.Voucher),
		codes:         make(map[string]map[string]bool),
		notifications: make(map[string][]*domain.Notification),
	}
	return &repository.Store{
		UserRepository:         &userRepository{d},
		LedgerRepository:       &ledgerRepository{d},
		VoucherRepository:      &voucherRepository{d},
		NotificationRepository: &notificationRepository{d},
	}
}
