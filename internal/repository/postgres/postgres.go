package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"ctspark-backend/internal/repository"
)

// NewStore wires every repository to the same connection pool.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		UserRepository:         NewUserRepository(db),
		LedgerRepository:       NewLedgerRepository(db),
		VoucherRepository:      NewVoucherRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type scanner interface {
	Scan(dest ...any) error
}
