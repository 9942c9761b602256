package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ctspark-backend/internal/config"
	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/security"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage customer accounts",
	}
	cmd.AddCommand(c.usersCreateCmd())
	return cmd
}

func (c *cli) usersCreateCmd() *cobra.Command {
	var (
		id       string
		location string
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "create [email]",
		Short: "Create a customer with a zero balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			user := &domain.User{
				ID:         id,
				Email:      args[0],
				LocationID: location,
				IsAdmin:    admin,
				CreatedAt:  time.Now().UTC(),
			}
			if err := c.app.Store.UserRepository.Create(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "User ID (default: random; use the Firebase UID in firebase mode)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "Home location")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant operator access")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		email string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue an access token (jwt auth mode only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.app.Config
			if cfg.Auth.Mode != config.AuthModeJWT {
				return fmt.Errorf("tokens are issued by Firebase in %q auth mode", cfg.Auth.Mode)
			}
			var roles []string
			if admin {
				roles = append(roles, security.RoleAdmin)
			}
			ttl := time.Duration(cfg.Auth.TokenExpiryMinutes) * time.Minute
			token, err := security.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateAccessToken(args[0], email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "Include the admin role")
	return cmd
}
