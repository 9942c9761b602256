package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, username, location_id, balance, is_admin, created_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Username, u.LocationID, u.Balance, u.IsAdmin, u.CreatedAt)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, email, COALESCE(username, ''), COALESCE(location_id, ''), balance, is_admin, last_deposit_at, created_at FROM users WHERE id = $1`
	var lastDeposit sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Username, &u.LocationID, &u.Balance, &u.IsAdmin, &lastDeposit, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
		}
		return nil, err
	}
	if lastDeposit.Valid {
		u.LastDepositAt = &lastDeposit.Time
	}
	return u, nil
}
