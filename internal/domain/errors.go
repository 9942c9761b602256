package domain

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrMalformedEvent       = errors.New("malformed webhook event")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateReference   = errors.New("transaction reference already exists")
	ErrAlreadyProcessed     = errors.New("transaction already processed")
	ErrInvalidTransition    = errors.New("invalid transaction status transition")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrUserNotFound         = errors.New("user not found")
	ErrVoucherTaken         = errors.New("voucher already claimed")
	ErrNoVoucherAvailable   = errors.New("no voucher available")
	ErrInventoryFull        = errors.New("voucher inventory is full")
	ErrDuplicateCode        = errors.New("voucher code already exists for plan")
	ErrNoLocation           = errors.New("user has no location")
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrAmountMismatch       = errors.New("amount does not match")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNotOwner             = errors.New("transaction belongs to another user")
	ErrUnsupportedGateway   = errors.New("unsupported payment method")
	ErrNotificationNotFound = errors.New("notification not found")
)
