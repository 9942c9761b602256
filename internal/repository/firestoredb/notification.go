package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"ctspark-backend/internal/domain"
)

type notificationRepository struct {
	client *firestore.Client
}

func (r *notificationRepository) inbox(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(notificationsCollection)
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	ref := r.inbox(n.UserID).NewDoc()
	if _, err := ref.Create(ctx, n); err != nil {
		return err
	}
	n.ID = ref.ID
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	q := r.inbox(userID).OrderBy("createdAt", firestore.Desc).Offset(int(offset))
	if limit > 0 {
		q = q.Limit(int(limit))
	}

	it := q.Documents(ctx)
	defer it.Stop()
	var notes []domain.Notification
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		var n domain.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, 0, err
		}
		n.ID = snap.Ref.ID
		n.UserID = userID
		notes = append(notes, n)
	}

	total, err := count(ctx, r.inbox(userID).Query)
	if err != nil {
		return nil, 0, err
	}
	return notes, int32(total), nil
}

// MarkAsRead addresses the document under the caller's own inbox, so another
// user's notification id resolves to NotFound.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	_, err := r.inbox(userID).Doc(id).Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrNotificationNotFound, id)
	}
	return err
}
