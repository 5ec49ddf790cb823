package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Payment    PaymentConfig    `yaml:"payment"`
	Booking    BookingConfig    `yaml:"booking"`
	Agreements AgreementsConfig `yaml:"agreements"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// IsProduction reports whether the app runs with environment=production.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(a.Environment), "production")
}

type DatabaseConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout_ms"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

type AuthConfig struct {
	JWTSecret    string         `yaml:"jwt_secret"`
	JWTIssuer    string         `yaml:"jwt_issuer"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type PaymentConfig struct {
	PublicKey string `yaml:"public_key"`
	SecretKey string `yaml:"secret_key"`
	Currency  string `yaml:"currency"`
	// IdempotencyTTLHours is how long a charge stays bound to its idempotency key.
	IdempotencyTTLHours int `yaml:"idempotency_ttl_hours"`
}

type BookingConfig struct {
	MaxDays        int `yaml:"max_days"`
	MaxAdvanceDays int `yaml:"max_advance_days"`
}

type AgreementsConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	Managers []int64 `yaml:"managers"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type CatalogConfig struct {
	SeedPath string `yaml:"seed_path"`
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth jwt_secret is required")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("payment currency must be an ISO code, got %q", c.Payment.Currency)
	}
	if c.Booking.MaxDays < 1 {
		return errors.New("booking max_days must be positive")
	}

	keys := make(map[string]bool, len(c.Auth.APIKeys))
	for _, k := range c.Auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if keys[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		keys[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "velorent"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = 5000
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			c.Backup.Dir = "data/backups"
		}
		if c.Backup.IntervalHours == 0 {
			c.Backup.IntervalHours = 24
		}
		if c.Backup.RetentionDays == 0 {
			c.Backup.RetentionDays = 7
		}
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.HeaderAPIKey == "" {
		c.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}
	c.Payment.Currency = strings.ToLower(c.Payment.Currency)
	if c.Payment.IdempotencyTTLHours == 0 {
		c.Payment.IdempotencyTTLHours = 24
	}
	if c.Booking.MaxDays == 0 {
		c.Booking.MaxDays = 90
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 365
	}
	if c.Agreements.Dir == "" {
		c.Agreements.Dir = "data/agreements"
	}
	if c.Agreements.BaseURL == "" {
		c.Agreements.BaseURL = "/agreements"
	}
	if c.AMQP.URL != "" && c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "velorent.events"
	}
}
