package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/service"
)

// reconcileConcurrency bounds parallel gateway lookups; the gateway clients
// rate limit on top of this.
const reconcileConcurrency = 4

// ReconcilePendingTransactions re-verifies pending transactions whose webhook
// never arrived. Each reference settles through the same path as a webhook, so
// a late webhook racing this job is answered as already processed.
func (jr *JobRunner) ReconcilePendingTransactions() {
	jr.runWithRecovery("ReconcilePendingTransactions", func() {
		jr.reconcilePending(context.Background(), time.Now())
	})
}

// outcomeAbandoned counts transactions the sweep gave up on and marked failed.
const outcomeAbandoned service.Outcome = "abandoned"

func (jr *JobRunner) reconcilePending(ctx context.Context, now time.Time) map[service.Outcome]int {
	cutoff := now.Add(-jr.config.StaleAfter())
	pending, err := jr.ledgerRepo.ListByStatus(ctx, domain.StatusPending, cutoff, int32(jr.config.Reconciler.BatchSize))
	if err != nil {
		logger.Error("Failed to list pending transactions", "error", err)
		return nil
	}
	if len(pending) == 0 {
		logger.Info("No stale pending transactions", "cutoff", cutoff)
		return nil
	}

	var (
		mu        sync.Mutex
		counts    = make(map[service.Outcome]int)
		abandoned []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, tx := range pending {
		g.Go(func() error {
			outcome, err := jr.services.Reconciler.ReconcileReference(gctx, tx.Reference)
			if reason := abandonReason(outcome, err); reason != "" && jr.expired(tx, now) {
				if jr.abandon(gctx, tx, reason, now) {
					mu.Lock()
					counts[outcomeAbandoned]++
					abandoned = append(abandoned, tx.Reference+" ("+reason+")")
					mu.Unlock()
					return nil
				}
			}
			if err != nil {
				// One bad reference must not stop the batch.
				logger.Error("Failed to reconcile transaction", "reference", tx.Reference, "error", err)
				outcome = "error"
			}
			mu.Lock()
			counts[outcome]++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Reconciled pending transactions",
		"total", len(pending),
		"succeeded", counts[service.OutcomeSucceeded],
		"failed", counts[service.OutcomeFailed],
		"unfulfilled", counts[service.OutcomeUnfulfilled],
		"still_pending", counts[service.OutcomeStillPending],
		"deferred", counts[service.OutcomeDeferred],
		"abandoned", counts[outcomeAbandoned],
		"errors", counts["error"])

	if len(abandoned) > 0 && jr.services.Alerts != nil {
		sort.Strings(abandoned)
		subject := fmt.Sprintf("Abandoned %d pending transaction(s)", len(abandoned))
		body := "Marked failed after " + jr.config.AbandonAfter().String() + " without settling:\n" + strings.Join(abandoned, "\n") + "\n"
		if err := jr.services.Alerts.SendOperatorAlert(ctx, subject, body); err != nil {
			logger.Error("Failed to send abandonment alert", "error", err)
		}
	}
	return counts
}

// abandonReason names why a transaction can never settle on its own, or
// returns "" when retrying may still help. An unreachable gateway always
// retries.
func abandonReason(outcome service.Outcome, err error) string {
	switch {
	case errors.Is(err, gateway.ErrVerificationFailed):
		return "payment not found at gateway"
	case errors.Is(err, domain.ErrUnsupportedGateway):
		return "payment never completed"
	case err == nil && outcome == service.OutcomeStillPending:
		return "payment abandoned"
	}
	return ""
}

func (jr *JobRunner) expired(tx domain.Transaction, now time.Time) bool {
	after := jr.config.AbandonAfter()
	return after > 0 && tx.Timestamp.Before(now.Add(-after))
}

// abandon moves a pending transaction to failed. No balance moves: a pending
// transaction has not been debited or credited yet.
func (jr *JobRunner) abandon(ctx context.Context, tx domain.Transaction, reason string, now time.Time) bool {
	_, err := jr.ledgerRepo.ApplyTransition(ctx, domain.Transition{
		Reference:     tx.Reference,
		From:          domain.StatusPending,
		To:            domain.StatusFailed,
		FailureReason: reason,
		At:            now,
	})
	if err != nil {
		// ErrAlreadyProcessed means a webhook settled it meanwhile.
		logger.Warn("Could not abandon pending transaction", "reference", tx.Reference, "error", err)
		return false
	}
	logger.Warn("Abandoned pending transaction", "reference", tx.Reference, "user_id", tx.UserID, "amount", tx.Amount, "reason", reason)
	return true
}
