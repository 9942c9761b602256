package domain

import "fmt"

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
	// StatusUnfulfilled marks a paid transaction that has not been applied yet:
	// a purchase waiting for a voucher, or a payment whose amount did not match.
	StatusUnfulfilled TransactionStatus = "unfulfilled"

	// statusCompleted is written by older portal screens and means success.
	statusCompleted TransactionStatus = "completed"
)

// Normalize folds legacy spellings into the canonical status.
func (s TransactionStatus) Normalize() TransactionStatus {
	if s == statusCompleted {
		return StatusSuccess
	}
	return s
}

// IsTerminal reports whether no further automatic transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	switch s.Normalize() {
	case StatusSuccess, StatusFailed:
		return true
	}
	return false
}

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:     {StatusSuccess, StatusFailed, StatusUnfulfilled},
	StatusUnfulfilled: {StatusSuccess, StatusFailed},
}

// CheckTransition validates from→to against the transition table.
func CheckTransition(from, to TransactionStatus) error {
	from, to = from.Normalize(), to.Normalize()
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrAlreadyProcessed, from)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// GuardCurrent is evaluated inside the atomic unit against the stored status.
// A status other than the expected one means another writer got there first.
func GuardCurrent(current TransactionStatus, t Transition) error {
	if current.Normalize() == t.From.Normalize() {
		return nil
	}
	return fmt.Errorf("%w: reference %s is %s, expected %s", ErrAlreadyProcessed, t.Reference, current, t.From)
}
