package main

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) vouchersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vouchers",
		Short: "Manage voucher pools",
	}
	cmd.AddCommand(c.vouchersUploadCmd())
	cmd.AddCommand(c.vouchersStockCmd())
	return cmd
}

func (c *cli) vouchersUploadCmd() *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "upload [plan] [file]",
		Short: "Upload voucher codes, one per line, into a plan pool",
		Long: `Upload appends codes to the first bucket with room and spills into
the following buckets. Blank lines are skipped and codes are trimmed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			var codes []string
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				codes = append(codes, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			inserted, err := c.app.Inventory.Upload(cmd.Context(), args[0], location, codes)
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d voucher(s) into %s at %s\n", inserted, args[0], location)
			return err
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "Location the vouchers are valid at")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func (c *cli) vouchersStockCmd() *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show unused and used vouchers per plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Inventory.StockReport(cmd.Context(), location)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLAN\tUNUSED\tUSED\tTOTAL")
			for _, s := range report {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.PlanKey, s.Unused, s.Used, s.Total())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "Limit to one location (default: all)")
	return cmd
}
