package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ctspark-backend/internal/gateway"
)

func (c *cli) webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Sign and replay gateway webhook bodies",
	}
	cmd.AddCommand(c.webhookSignCmd())
	cmd.AddCommand(c.webhookReplayCmd())
	return cmd
}

func (c *cli) webhookSignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [file|-]",
		Short: "Print the x-paystack-signature value for a body under the configured webhook secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gateway.Sign(body, c.app.Config.Reconciler.WebhookSecret))
			return nil
		},
	}
}

// Replay feeds a saved event through the webhook path, e.g. one the gateway
// dashboard shows as undelivered. The gateway still decides the outcome.
func (c *cli) webhookReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Process a saved webhook body as if the gateway had delivered it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}
			sig := gateway.Sign(body, c.app.Config.Reconciler.WebhookSecret)
			outcome, err := c.app.Reconciler.HandleWebhook(cmd.Context(), body, sig)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replayed webhook: %s\n", outcome)
			return nil
		},
	}
}

func readBody(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}
	return body, nil
}
