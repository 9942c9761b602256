package domain

import "time"

type User struct {
	ID            string     `json:"id" firestore:"-"`
	Email         string     `json:"email" firestore:"email"`
	Username      string     `json:"username" firestore:"username"`
	LocationID    string     `json:"location_id" firestore:"locationId"`
	Balance       Kobo       `json:"balance" firestore:"balance"`
	IsAdmin       bool       `json:"is_admin" firestore:"isAdmin"`
	LastDepositAt *time.Time `json:"last_deposit_at,omitempty" firestore:"lastDepositAt,omitempty"`
	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
}
