package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ctspark-backend/internal/domain"
)

type notificationRepository struct {
	db *db
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	r.db.notifications[n.UserID] = append(r.db.notifications[n.UserID], &cp)
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	notes := make([]domain.Notification, 0, len(r.db.notifications[userID]))
	for _, n := range r.db.notifications[userID] {
		notes = append(notes, *n)
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return page(notes, limit, offset), int32(len(notes)), nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range r.db.notifications[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrNotificationNotFound, id)
}
