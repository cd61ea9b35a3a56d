package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Accounts  []Account
	Regions   RegionConfig
	Alert     AlertConfig
	WeCom     BotChannelConfig
	YunZhiJia BotChannelConfig
	Email     EmailConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// Account identifies one cloud account and its API credentials
type Account struct {
	Name      string `yaml:"name" validate:"required"`
	SecretID  string `yaml:"secret_id" validate:"required"`
	SecretKey string `yaml:"secret_key" validate:"required"`
}

// RegionConfig contains the regions queried per resource kind class
type RegionConfig struct {
	Resources []string `validate:"min=1"`
	Billing   string   `validate:"required"`
}

// AlertConfig governs which resources are surfaced in notifications
type AlertConfig struct {
	Mode          string `validate:"oneof=all specific"`
	ThresholdDays int
}

// Bot is one named webhook endpoint
type Bot struct {
	Name       string `validate:"required"`
	WebhookURL string `validate:"required,url"`
}

// BotChannelConfig configures a webhook bot channel (WeCom, YunZhiJia)
type BotChannelConfig struct {
	Enabled    bool
	Bots       []Bot
	SendMode   string   // all or targeted
	TargetBots []string // used when SendMode is targeted
}

// Targets returns the bot names a send should go to, nil meaning all.
func (c BotChannelConfig) Targets() []string {
	if c.SendMode == "all" {
		return nil
	}
	return c.TargetBots
}

// Mailbox is one named group of email recipients
type Mailbox struct {
	Name       string   `validate:"required"`
	Recipients []string `validate:"min=1,dive,email"`
}

// EmailConfig contains SMTP and recipient configuration
type EmailConfig struct {
	Enabled    bool
	SMTPServer string `validate:"required"`
	SMTPPort   int
	Sender     string `validate:"required,email"`
	Password   string `validate:"required"`
	UseSSL     bool
	Mailboxes  []Mailbox `validate:"min=1"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Enabled bool
	Driver  string // postgres or sqlite
	Host    string
	Port    int
	Name    string
	User    string
	Password string
	SSLMode string
	// For SQLite
	Path string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// MetricsConfig contains the optional Prometheus listener address
type MetricsConfig struct {
	Addr string // empty disables the listener
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Regions: RegionConfig{
			Resources: getEnvAsList("RESOURCE_SERVICE_REGIONS", []string{"ap-guangzhou"}),
			Billing:   getEnv("BILLING_SERVICE_REGION", "ap-guangzhou"),
		},
		Alert: AlertConfig{
			Mode:          getEnv("RESOURCE_ALERT_MODE", "all"),
			ThresholdDays: getEnvAsInt("RESOURCE_ALERT_DAYS", 65),
		},
		WeCom: BotChannelConfig{
			Enabled:    getEnvAsBool("ENABLE_WECHAT_ALERT", false),
			Bots:       loadBots("WECHAT_BOT"),
			SendMode:   getEnv("WECHAT_SEND_MODE", "all"),
			TargetBots: getEnvAsList("WECHAT_TARGET_BOTS", nil),
		},
		YunZhiJia: BotChannelConfig{
			Enabled:    getEnvAsBool("ENABLE_YUNZHIJIA_ALERT", false),
			Bots:       loadBots("YUNZHIJIA_BOT"),
			SendMode:   getEnv("YUNZHIJIA_SEND_MODE", "all"),
			TargetBots: getEnvAsList("YUNZHIJIA_TARGET_BOTS", nil),
		},
		Email: EmailConfig{
			Enabled:    getEnvAsBool("ENABLE_EMAIL_ALERT", false),
			SMTPServer: getEnv("EMAIL_SMTP_SERVER", ""),
			SMTPPort:   getEnvAsInt("EMAIL_SMTP_PORT", 465),
			Sender:     getEnv("EMAIL_SENDER", ""),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			UseSSL:     getEnvAsBool("EMAIL_USE_SSL", true),
			Mailboxes:  loadMailboxes(),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("ENABLE_DATABASE", false),
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tcmonitor"),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "./tcmonitor.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
	}

	accounts, err := loadAccounts()
	if err != nil {
		return nil, err
	}
	cfg.Accounts = accounts

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for consistency. Channel configuration is
// only validated for channels that are enabled.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured: set ACCOUNT1_NAME or ACCOUNTS_FILE")
	}

	v := validator.New()
	for i, acc := range c.Accounts {
		if err := v.Struct(acc); err != nil {
			return fmt.Errorf("account %d (%s): %w", i+1, acc.Name, err)
		}
	}
	if err := v.Struct(c.Regions); err != nil {
		return fmt.Errorf("region config: %w", err)
	}
	if err := v.Struct(c.Alert); err != nil {
		return fmt.Errorf("alert config: %w", err)
	}

	if c.WeCom.Enabled {
		if len(c.WeCom.Bots) == 0 {
			return fmt.Errorf("wecom alert enabled but no WECHAT_BOT1_NAME configured")
		}
		for _, b := range c.WeCom.Bots {
			if err := v.Struct(b); err != nil {
				return fmt.Errorf("wecom bot %q: %w", b.Name, err)
			}
		}
	}
	if c.YunZhiJia.Enabled {
		if len(c.YunZhiJia.Bots) == 0 {
			return fmt.Errorf("yunzhijia alert enabled but no YUNZHIJIA_BOT1_NAME configured")
		}
		for _, b := range c.YunZhiJia.Bots {
			if err := v.Struct(b); err != nil {
				return fmt.Errorf("yunzhijia bot %q: %w", b.Name, err)
			}
		}
	}
	if c.Email.Enabled {
		if err := v.Struct(c.Email); err != nil {
			return fmt.Errorf("email config: %w", err)
		}
	}

	return nil
}

// loadBots enumerates indexed bot env vars, e.g. WECHAT_BOT1_NAME/WECHAT_BOT1_WEBHOOK.
func loadBots(prefix string) []Bot {
	var bots []Bot
	for i := 1; ; i++ {
		name := os.Getenv(fmt.Sprintf("%s%d_NAME", prefix, i))
		if name == "" {
			break
		}
		bots = append(bots, Bot{
			Name:       name,
			WebhookURL: os.Getenv(fmt.Sprintf("%s%d_WEBHOOK", prefix, i)),
		})
	}
	return bots
}

// loadMailboxes enumerates EMAIL_MAILBOX1_NAME/EMAIL_MAILBOX1_RECIPIENTS.
// When none are configured, EMAIL_RECEIVERS becomes a single "default" mailbox.
func loadMailboxes() []Mailbox {
	var boxes []Mailbox
	for i := 1; ; i++ {
		name := os.Getenv(fmt.Sprintf("EMAIL_MAILBOX%d_NAME", i))
		if name == "" {
			break
		}
		boxes = append(boxes, Mailbox{
			Name:       name,
			Recipients: splitList(os.Getenv(fmt.Sprintf("EMAIL_MAILBOX%d_RECIPIENTS", i))),
		})
	}
	if len(boxes) == 0 {
		if receivers := getEnvAsList("EMAIL_RECEIVERS", nil); len(receivers) > 0 {
			boxes = append(boxes, Mailbox{Name: "default", Recipients: receivers})
		}
	}
	return boxes
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as int with a fallback
func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsBool gets an environment variable as bool with a fallback
func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvAsList gets a comma separated environment variable as a string slice
func getEnvAsList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return splitList(value)
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
