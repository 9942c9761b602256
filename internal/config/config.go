package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ctspark-backend/internal/gateway"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Storage     StorageConfig    `yaml:"storage"`
	Database    DatabaseConfig   `yaml:"database"`
	Firebase    FirebaseConfig   `yaml:"firebase"`
	Auth        AuthConfig       `yaml:"auth"`
	Paystack    GatewayConfig    `yaml:"paystack"`
	Flutterwave GatewayConfig    `yaml:"flutterwave"`
	Vouchers    VoucherConfig    `yaml:"vouchers"`
	Reconciler  ReconcilerConfig `yaml:"reconciler"`
	Scheduler   SchedulerConfig  `yaml:"scheduler"`
	SendGrid    SendGridConfig   `yaml:"sendgrid"`
	Log         LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

const (
	StorageMemory    = "memory"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
)

// StorageConfig selects the ledger and voucher backend
type StorageConfig struct {
	Type string `yaml:"type"` // "memory", "postgres" or "firestore"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
}

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
)

// AuthConfig selects how bearer tokens are verified
type AuthConfig struct {
	Mode               string `yaml:"mode"` // "firebase" or "jwt"
	JWTSecret          string `yaml:"jwt_secret"`
	TokenExpiryMinutes int    `yaml:"token_expiry_minutes"`
}

// GatewayConfig contains one payment gateway's credentials and client limits
type GatewayConfig struct {
	Enabled        bool    `yaml:"enabled"`
	SecretKey      string  `yaml:"secret_key"`
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

type VoucherConfig struct {
	BucketCount       int `yaml:"bucket_count"`
	BucketCapacity    int `yaml:"bucket_capacity"`
	LowStockThreshold int `yaml:"low_stock_threshold"`
}

type ReconcilerConfig struct {
	// WebhookGateway is the gateway whose events arrive on POST /webhook.
	WebhookGateway string `yaml:"webhook_gateway"`
	// WebhookSecret keys the webhook HMAC; defaults to that gateway's secret key.
	WebhookSecret     string `yaml:"webhook_secret"`
	StaleAfterMinutes int    `yaml:"stale_after_minutes"`
	// AbandonAfterMinutes is how long a pending transaction the gateway cannot
	// settle is retried before the sweep marks it failed.
	AbandonAfterMinutes int `yaml:"abandon_after_minutes"`
	BatchSize           int `yaml:"batch_size"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcilePending  string `yaml:"reconcile_pending"`
	CheckVoucherStock string `yaml:"check_voucher_stock"`
}

// SendGridConfig contains operator alert email settings
type SendGridConfig struct {
	APIKey         string   `yaml:"api_key"`
	FromEmail      string   `yaml:"from_email"`
	FromName       string   `yaml:"from_name"`
	OperatorEmails []string `yaml:"operator_emails"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file. A .env file next to the working
// directory is loaded first so its values take part in the environment overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Firebase
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.Firebase.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
		c.Firebase.CredentialsFile = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_JSON"); val != "" {
		c.Firebase.CredentialsJSON = val
	}

	// Auth
	if val := os.Getenv("AUTH_MODE"); val != "" {
		c.Auth.Mode = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}

	// Gateways
	if val := os.Getenv("PAYSTACK_SECRET_KEY"); val != "" {
		c.Paystack.SecretKey = val
	}
	if val := os.Getenv("FLUTTERWAVE_SECRET_KEY"); val != "" {
		c.Flutterwave.SecretKey = val
	}
	if val := os.Getenv("WEBHOOK_SECRET"); val != "" {
		c.Reconciler.WebhookSecret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("OPERATOR_EMAILS"); val != "" {
		c.SendGrid.OperatorEmails = splitList(val)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults.
// Missing secrets and storage credentials are fatal at startup.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case StorageFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for firestore storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	// Auth validation
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthModeFirebase
	}
	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for firebase auth")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT secret must be at least 32 characters")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Auth.Mode)
	}
	if c.Auth.TokenExpiryMinutes == 0 {
		c.Auth.TokenExpiryMinutes = 60
	}

	// Gateway validation
	if !c.Paystack.Enabled && !c.Flutterwave.Enabled {
		return fmt.Errorf("at least one payment gateway must be enabled")
	}
	if c.Paystack.Enabled && c.Paystack.SecretKey == "" {
		return fmt.Errorf("paystack secret key is required")
	}
	if c.Flutterwave.Enabled && c.Flutterwave.SecretKey == "" {
		return fmt.Errorf("flutterwave secret key is required")
	}
	c.Paystack.applyDefaults(gateway.PaystackBaseURL)
	c.Flutterwave.applyDefaults(gateway.FlutterwaveBaseURL)

	// Reconciler validation
	if c.Reconciler.WebhookGateway == "" {
		c.Reconciler.WebhookGateway = "paystack"
	}
	webhook, ok := c.Gateway(c.Reconciler.WebhookGateway)
	if !ok || !webhook.Enabled {
		return fmt.Errorf("webhook gateway %q is not enabled", c.Reconciler.WebhookGateway)
	}
	if c.Reconciler.WebhookSecret == "" {
		c.Reconciler.WebhookSecret = webhook.SecretKey
	}
	if c.Reconciler.StaleAfterMinutes == 0 {
		c.Reconciler.StaleAfterMinutes = 15
	}
	if c.Reconciler.AbandonAfterMinutes == 0 {
		c.Reconciler.AbandonAfterMinutes = 24 * 60
	}
	if c.Reconciler.AbandonAfterMinutes <= c.Reconciler.StaleAfterMinutes {
		return fmt.Errorf("reconciler.abandon_after_minutes (%d) must exceed stale_after_minutes (%d)",
			c.Reconciler.AbandonAfterMinutes, c.Reconciler.StaleAfterMinutes)
	}
	if c.Reconciler.BatchSize == 0 {
		c.Reconciler.BatchSize = 50
	}

	// Voucher defaults
	if c.Vouchers.BucketCount == 0 {
		c.Vouchers.BucketCount = 20
	}
	if c.Vouchers.BucketCapacity == 0 {
		c.Vouchers.BucketCapacity = 500
	}
	if c.Vouchers.LowStockThreshold == 0 {
		c.Vouchers.LowStockThreshold = 5
	}

	// SendGrid defaults
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "CT SPARK"
	}
	if c.SendGrid.APIKey != "" && c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from email is required when an API key is set")
	}

	// Scheduler defaults
	if c.Scheduler.ReconcilePending == "" {
		c.Scheduler.ReconcilePending = "0 */10 * * * *" // Every 10 minutes
	}
	if c.Scheduler.CheckVoucherStock == "" {
		c.Scheduler.CheckVoucherStock = "0 0 7 * * *" // Daily at 7 AM UTC
	}

	return nil
}

func (g *GatewayConfig) applyDefaults(baseURL string) {
	if g.BaseURL == "" {
		g.BaseURL = baseURL
	}
	if g.TimeoutSeconds == 0 {
		g.TimeoutSeconds = 10
	}
	if g.RatePerSecond == 0 {
		g.RatePerSecond = 5
	}
	if g.Burst == 0 {
		g.Burst = 10
	}
}

// Gateway returns the settings of a gateway by name.
func (c *Config) Gateway(name string) (GatewayConfig, bool) {
	switch name {
	case "paystack":
		return c.Paystack, true
	case "flutterwave":
		return c.Flutterwave, true
	}
	return GatewayConfig{}, false
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Reconciler.StaleAfterMinutes) * time.Minute
}

// AbandonAfter is zero when abandonment is off.
func (c *Config) AbandonAfter() time.Duration {
	return time.Duration(c.Reconciler.AbandonAfterMinutes) * time.Minute
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
