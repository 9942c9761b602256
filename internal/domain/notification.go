package domain

import "time"

type NotificationType string

const (
	NotificationTypePayment  NotificationType = "payment"
	NotificationTypePurchase NotificationType = "purchase"
)

type Notification struct {
	ID        string           `json:"id" firestore:"-"`
	UserID    string           `json:"user_id" firestore:"userId"`
	Type      NotificationType `json:"type" firestore:"type"`
	Status    string           `json:"status" firestore:"status"`
	Amount    Kobo             `json:"amount" firestore:"amount"`
	Message   string           `json:"message" firestore:"message"`
	Read      bool             `json:"read" firestore:"read"`
	CreatedAt time.Time        `json:"created_at" firestore:"createdAt"`
}
