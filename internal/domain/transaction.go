package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "deposit"
	TransactionTypeDirectPayment  TransactionType = "direct_payment"
	TransactionTypeBalancePayment TransactionType = "balance_payment"
)

// IsPurchase reports whether the transaction buys a plan voucher.
func (t TransactionType) IsPurchase() bool {
	return t == TransactionTypeDirectPayment || t == TransactionTypeBalancePayment
}

type PaymentGateway string

const (
	GatewayPaystack    PaymentGateway = "paystack"
	GatewayFlutterwave PaymentGateway = "flutterwave"
	GatewayBalance     PaymentGateway = "balance"
)

func ParsePaymentGateway(s string) (PaymentGateway, error) {
	switch g := PaymentGateway(s); g {
	case GatewayPaystack, GatewayFlutterwave, GatewayBalance:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedGateway, s)
}

// PaymentDetails echoes what the gateway reported when the transaction was verified.
type PaymentDetails struct {
	Gateway         PaymentGateway `json:"gateway" firestore:"gateway"`
	Reference       string         `json:"reference" firestore:"reference"`
	Amount          Kobo           `json:"amount" firestore:"amount"`
	Currency        string         `json:"currency,omitempty" firestore:"currency,omitempty"`
	CustomerEmail   string         `json:"customer_email,omitempty" firestore:"customerEmail,omitempty"`
	GatewayResponse string         `json:"gateway_response,omitempty" firestore:"gatewayResponse,omitempty"`
	PaidAt          *time.Time     `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
	Raw             string         `json:"-" firestore:"verificationData,omitempty"`
}

type Transaction struct {
	ID             string            `json:"id" firestore:"-"`
	Reference      string            `json:"reference" firestore:"reference"`
	UserID         string            `json:"user_id" firestore:"userId"`
	Amount         Kobo              `json:"amount" firestore:"amount"`
	Type           TransactionType   `json:"type" firestore:"type"`
	Status         TransactionStatus `json:"status" firestore:"status"`
	LocationID     string            `json:"location_id,omitempty" firestore:"locationId,omitempty"`
	PaymentGateway PaymentGateway    `json:"payment_gateway" firestore:"paymentGateway"`
	Plan           string            `json:"plan,omitempty" firestore:"plan,omitempty"`
	VoucherCode    string            `json:"voucher_code,omitempty" firestore:"voucherCode,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty" firestore:"failureReason,omitempty"`
	PaymentDetails *PaymentDetails   `json:"payment_details,omitempty" firestore:"paymentDetails,omitempty"`
	Timestamp      time.Time         `json:"timestamp" firestore:"timestamp"`
	UpdatedAt      time.Time         `json:"updated_at" firestore:"updatedAt"`
}

// NewReference returns a fresh caller-side idempotency key, e.g. CTS_1718000000000_0042.
func NewReference(now time.Time) string {
	return fmt.Sprintf("CTS_%d_%04d", now.UnixMilli(), rand.IntN(10000))
}

// Transition is one guarded status change of a transaction together with the
// balance mutation that must be applied in the same atomic unit.
type Transition struct {
	Reference      string
	From           TransactionStatus
	To             TransactionStatus
	BalanceDelta   Kobo
	VoucherCode    string
	FailureReason  string
	PaymentDetails *PaymentDetails
	At             time.Time
}

func (t Transition) Validate() error {
	if t.Reference == "" {
		return fmt.Errorf("%w: empty reference", ErrTransactionNotFound)
	}
	return CheckTransition(t.From, t.To)
}

// Apply mutates tx in memory. Storage implementations call it after the guard passed
// so every backend writes the same fields.
func (t Transition) Apply(tx *Transaction) {
	tx.Status = t.To
	tx.UpdatedAt = t.At
	if t.VoucherCode != "" {
		tx.VoucherCode = t.VoucherCode
	}
	if t.FailureReason != "" {
		tx.FailureReason = t.FailureReason
	}
	if t.PaymentDetails != nil {
		tx.PaymentDetails = t.PaymentDetails
	}
}
