package memory

import (
	"context"
	"fmt"
	"time"

	"ctspark-backend/internal/domain"
)

type userRepository struct {
	db *db
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	if u.Balance < 0 {
		return domain.ErrInsufficientBalance
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
