package domain_test

import (
	"errors"
	"testing"

	"ctspark-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.TransactionStatus
		to      domain.TransactionStatus
		wantErr error
	}{
		{"pending to success", domain.StatusPending, domain.StatusSuccess, nil},
		{"pending to failed", domain.StatusPending, domain.StatusFailed, nil},
		{"pending to unfulfilled", domain.StatusPending, domain.StatusUnfulfilled, nil},
		{"unfulfilled to success", domain.StatusUnfulfilled, domain.StatusSuccess, nil},
		{"unfulfilled to failed", domain.StatusUnfulfilled, domain.StatusFailed, nil},
		{"success is absorbing", domain.StatusSuccess, domain.StatusFailed, domain.ErrAlreadyProcessed},
		{"success re-entered", domain.StatusSuccess, domain.StatusSuccess, domain.ErrAlreadyProcessed},
		{"failed is absorbing", domain.StatusFailed, domain.StatusSuccess, domain.ErrAlreadyProcessed},
		{"legacy completed is terminal", domain.TransactionStatus("completed"), domain.StatusFailed, domain.ErrAlreadyProcessed},
		{"back to pending", domain.StatusUnfulfilled, domain.StatusPending, domain.ErrInvalidTransition},
		{"pending to pending", domain.StatusPending, domain.StatusPending, domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.CheckTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGuardCurrent(t *testing.T) {
	tr := domain.Transition{Reference: "CTS_1", From: domain.StatusPending, To: domain.StatusSuccess}

	assert.NoError(t, domain.GuardCurrent(domain.StatusPending, tr))
	assert.ErrorIs(t, domain.GuardCurrent(domain.StatusSuccess, tr), domain.ErrAlreadyProcessed)
	assert.ErrorIs(t, domain.GuardCurrent(domain.StatusUnfulfilled, tr), domain.ErrAlreadyProcessed)
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.StatusSuccess.IsTerminal())
	assert.True(t, domain.StatusFailed.IsTerminal())
	assert.True(t, domain.TransactionStatus("completed").IsTerminal())
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusUnfulfilled.IsTerminal())
}
