package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ctspark-backend/internal/domain"
)

func (c *cli) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect and repair transactions",
	}
	cmd.AddCommand(c.transactionsListCmd())
	cmd.AddCommand(c.transactionsFulfilCmd())
	cmd.AddCommand(c.transactionsReconcileCmd())
	return cmd
}

func (c *cli) transactionsListCmd() *cobra.Command {
	var (
		status string
		limit  int32
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions by status, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := c.app.Ledger.ListByStatus(cmd.Context(), domain.TransactionStatus(status), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tUSER\tTYPE\tPLAN\tAMOUNT\tGATEWAY\tCREATED\tREASON")
			for _, tx := range txs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Reference, tx.UserID, tx.Type, tx.Plan, tx.Amount, tx.PaymentGateway,
					tx.Timestamp.Format("2006-01-02 15:04"), tx.FailureReason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(domain.StatusUnfulfilled), "pending, unfulfilled, success or failed")
	cmd.Flags().Int32VarP(&limit, "limit", "n", 50, "Maximum results")
	return cmd
}

func (c *cli) transactionsFulfilCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fulfil [reference]",
		Short: "Retry the voucher claim of an unfulfilled purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Purchases.FulfilUnfulfilled(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s voucher %s\n", res.TransactionReference, res.Status, res.VoucherCode)
			return nil
		},
	}
}

func (c *cli) transactionsReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [reference]",
		Short: "Re-verify a pending transaction with its gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := c.app.Reconciler.ReconcileReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], outcome)
			return nil
		},
	}
}
