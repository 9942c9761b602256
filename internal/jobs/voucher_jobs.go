package jobs

import (
	"context"
	"fmt"
	"strings"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/logger"
)

// CheckVoucherStock emails operators when any plan pool runs low.
func (jr *JobRunner) CheckVoucherStock() {
	jr.runWithRecovery("CheckVoucherStock", func() {
		jr.checkVoucherStock(context.Background())
	})
}

func (jr *JobRunner) checkVoucherStock(ctx context.Context) []domain.Stock {
	report, err := jr.services.Inventory.StockReport(ctx, "")
	if err != nil {
		logger.Error("Failed to build stock report", "error", err)
		return nil
	}

	threshold := int64(jr.config.Vouchers.LowStockThreshold)
	var low []domain.Stock
	for _, s := range report {
		if s.Unused < threshold {
			low = append(low, s)
		}
	}
	if len(low) == 0 {
		logger.Info("Voucher stock healthy", "plans", len(report))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following plans have fewer than %d unused vouchers:\n\n", threshold)
	for _, s := range low {
		fmt.Fprintf(&b, "  %s: %d unused, %d used\n", s.PlanKey, s.Unused, s.Used)
	}
	subject := fmt.Sprintf("Low voucher stock: %d plan(s)", len(low))
	if err := jr.services.Alerts.SendOperatorAlert(ctx, subject, b.String()); err != nil {
		logger.Error("Failed to send low stock alert", "error", err)
	}
	logger.Warn("Voucher stock low", "plans", len(low))
	return low
}
