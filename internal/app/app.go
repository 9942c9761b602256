// Package app assembles the storage backend, gateways and services shared by
// the server, the cronjob runner and the admin CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"

	"ctspark-backend/internal/config"
	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/firebaseapp"
	"ctspark-backend/internal/gateway"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
	"ctspark-backend/internal/repository/firestoredb"
	"ctspark-backend/internal/repository/memory"
	"ctspark-backend/internal/repository/postgres"
	"ctspark-backend/internal/security"
	"ctspark-backend/internal/service"
)

// App holds everything built from one configuration.
type App struct {
	Config *config.Config
	Store  *repository.Store

	Ledger        service.LedgerService
	Notifications service.NotificationService
	Alerts        service.AlertService
	Inventory     service.InventoryService
	Deposits      service.DepositService
	Purchases     service.PurchaseService
	Reconciler    service.ReconcileService

	firebase *firebase.App
	closers  []func() error
}

// New opens the configured storage backend and wires the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	verifiers, enabled := buildVerifiers(cfg)

	a.Ledger = service.NewLedgerService(a.Store.LedgerRepository)
	a.Notifications = service.NewNotificationService(a.Store.NotificationRepository)
	a.Alerts = service.NewAlertService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.SendGrid.OperatorEmails)
	a.Inventory = service.NewInventoryService(a.Store.VoucherRepository, cfg.Vouchers.BucketCount, cfg.Vouchers.BucketCapacity)
	a.Deposits = service.NewDepositService(a.Store.UserRepository, a.Store.LedgerRepository, enabled...)
	a.Reconciler = service.NewReconcileService(
		service.ReconcileConfig{
			WebhookSecret:  cfg.Reconciler.WebhookSecret,
			WebhookGateway: domain.PaymentGateway(cfg.Reconciler.WebhookGateway),
		},
		a.Store.LedgerRepository,
		a.Inventory,
		a.Notifications,
		a.Alerts,
		verifiers...,
	)
	a.Purchases = service.NewPurchaseService(
		a.Store.UserRepository,
		a.Store.LedgerRepository,
		a.Inventory,
		a.Reconciler,
		a.Notifications,
		a.Alerts,
		enabled...,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Storage.Type {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		a.Store = memory.NewStore()

	case config.StoragePostgres:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		a.Store = postgres.NewStore(db)

	case config.StorageFirestore:
		fb, err := a.firebaseApp(ctx)
		if err != nil {
			return err
		}
		client, err := fb.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("failed to create firestore client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		logger.Info("Firestore client ready", "project_id", cfg.Firebase.ProjectID)
		a.Store = firestoredb.NewStore(client)

	default:
		return fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}
	return nil
}

func (a *App) firebaseApp(ctx context.Context) (*firebase.App, error) {
	if a.firebase != nil {
		return a.firebase, nil
	}
	fb, err := firebaseapp.New(ctx, firebaseapp.Config{
		ProjectID:       a.Config.Firebase.ProjectID,
		CredentialsFile: a.Config.Firebase.CredentialsFile,
		CredentialsJSON: a.Config.Firebase.CredentialsJSON,
	})
	if err != nil {
		return nil, err
	}
	a.firebase = fb
	return fb, nil
}

// Authenticator returns the bearer-token verifier for the configured auth mode.
func (a *App) Authenticator(ctx context.Context) (security.Authenticator, error) {
	switch a.Config.Auth.Mode {
	case config.AuthModeJWT:
		ttl := time.Duration(a.Config.Auth.TokenExpiryMinutes) * time.Minute
		return security.NewJWTAuthenticator(security.NewTokenManager(a.Config.Auth.JWTSecret, ttl)), nil
	case config.AuthModeFirebase:
		fb, err := a.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		client, err := fb.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
		}
		return security.NewFirebaseAuthenticator(client), nil
	}
	return nil, fmt.Errorf("unsupported auth mode %q", a.Config.Auth.Mode)
}

// Close releases storage connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildVerifiers returns a rate-limited client for every enabled gateway.
func buildVerifiers(cfg *config.Config) ([]gateway.Verifier, []domain.PaymentGateway) {
	var (
		verifiers []gateway.Verifier
		enabled   []domain.PaymentGateway
	)
	for _, name := range []domain.PaymentGateway{domain.GatewayPaystack, domain.GatewayFlutterwave} {
		gc, _ := cfg.Gateway(string(name))
		if !gc.Enabled {
			continue
		}
		opts := gateway.Options{
			BaseURL:       gc.BaseURL,
			SecretKey:     gc.SecretKey,
			Timeout:       time.Duration(gc.TimeoutSeconds) * time.Second,
			RatePerSecond: gc.RatePerSecond,
			Burst:         gc.Burst,
		}
		switch name {
		case domain.GatewayPaystack:
			verifiers = append(verifiers, gateway.NewPaystack(opts))
		case domain.GatewayFlutterwave:
			verifiers = append(verifiers, gateway.NewFlutterwave(opts))
		}
		enabled = append(enabled, name)
		logger.Info("Payment gateway enabled", "gateway", name, "base_url", gc.BaseURL)
	}
	return verifiers, enabled
}
