// Package firestoredb stores the ledger, voucher pools and notifications in
// Cloud Firestore using the collection layout of the production portal:
//
//	users/{uid}
//	users/{uid}/notifications/{id}
//	transactions/{reference}
//	vouchers/{planKey}/bucket{n}/{id}
//	vouchers/{planKey}/codes/{sha256(code)}
package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ctspark-backend/internal/repository"
)

const (
	usersCollection         = "users"
	notificationsCollection = "notifications"
	transactionsCollection  = "transactions"
	vouchersCollection      = "vouchers"
	codesCollection         = "codes"
)

func NewStore(client *firestore.Client) *repository.Store {
	return &repository.Store{
		UserRepository:         &userRepository{client: client},
		LedgerRepository:       &ledgerRepository{client: client},
		VoucherRepository:      &voucherRepository{client: client},
		NotificationRepository: &notificationRepository{client: client},
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// count runs a server-side COUNT aggregation over q.
func count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("n").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["n"].(*firestorepb.Value)
	if !ok {
		return 0, nil
	}
	return v.GetIntegerValue(), nil
}
