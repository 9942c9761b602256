package domain

import (
	"fmt"
	"time"
)

const (
	DefaultBucketCount    = 20
	DefaultBucketCapacity = 500
)

// Voucher is a single-use plan code scoped to one location.
// Once Used is true, AssignedTo and AssignedAt are set and never cleared.
type Voucher struct {
	ID             string     `json:"id" firestore:"-"`
	Code           string     `json:"code" firestore:"code"`
	PlanKey        string     `json:"plan" firestore:"plan"`
	Bucket         int        `json:"bucket" firestore:"bucket"`
	LocationID     string     `json:"location_id" firestore:"locationId"`
	Used           bool       `json:"used" firestore:"used"`
	AssignedTo     string     `json:"assigned_to,omitempty" firestore:"assignedTo,omitempty"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty" firestore:"assignedAt,omitempty"`
	TransactionRef string     `json:"transaction_ref,omitempty" firestore:"transactionRef,omitempty"`
	CreatedAt      time.Time  `json:"created_at" firestore:"createdAt"`
}

// Claim describes the single allowed mutation of a voucher.
type Claim struct {
	UserID         string
	TransactionRef string
	At             time.Time
}

// BucketName is the shard collection name for bucket i (1-based).
func BucketName(i int) string {
	return fmt.Sprintf("bucket%d", i)
}

// Stock summarizes a plan pool for one location (or all locations when LocationID is empty).
type Stock struct {
	PlanKey    string `json:"plan"`
	LocationID string `json:"location_id,omitempty"`
	Unused     int64  `json:"unused"`
	Used       int64  `json:"used"`
}

func (s Stock) Total() int64 {
	return s.Unused + s.Used
}
