// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables override file values.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"clientportal/internal/domain"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig             `yaml:"server"`
	Logging LoggingConfig            `yaml:"logging"`
	Auth    AuthConfig               `yaml:"auth"`
	Store   StoreConfig              `yaml:"store"`
	OIDC    OIDCConfig               `yaml:"oidc"`
	Tables  TablesConfig             `yaml:"tables"`
	Presets []domain.RecipientPreset `yaml:"presets"`
}

// ServerConfig holds the listen address and static file settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	WebDir     string `yaml:"web_dir"`
	Production bool   `yaml:"production"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// AuthConfig holds the session secret and the operator password.
type AuthConfig struct {
	SessionSecret string `yaml:"session_secret"`
	Password      string `yaml:"password"`
	PasswordHash  string `yaml:"password_hash"` // bcrypt
}

// StoreConfig selects the row store backend and its settings.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SheetsConfig identifies the spreadsheet and its service account.
type SheetsConfig struct {
	SpreadsheetID       string `yaml:"spreadsheet_id"`
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKey          string `yaml:"private_key"`
}

// PostgresConfig holds the database connection string.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// OIDCConfig enables single sign-on when Issuer is set.
type OIDCConfig struct {
	Issuer        string   `yaml:"issuer"`
	ClientID      string   `yaml:"client_id"`
	ClientSecret  string   `yaml:"client_secret"`
	RedirectURL   string   `yaml:"redirect_url"`
	AllowedEmails []string `yaml:"allowed_emails"`
}

// TablesConfig names the three logical tables.
type TablesConfig struct {
	Clients    string `yaml:"clients"`
	Recipients string `yaml:"recipients"`
	Log        string `yaml:"log"`
}

// Load reads path when non-empty, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.Store.Sheets.PrivateKey = strings.ReplaceAll(cfg.Store.Sheets.PrivateKey, `\n`, "\n")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) applyEnv() {
	override(&c.Server.Addr, "ADDR")
	override(&c.Server.WebDir, "WEB_DIR")
	if os.Getenv("APP_ENV") == "production" || os.Getenv("NODE_ENV") == "production" {
		c.Server.Production = true
	}
	override(&c.Logging.Level, "LOG_LEVEL")
	override(&c.Logging.Format, "LOG_FORMAT")

	override(&c.Auth.SessionSecret, "SESSION_SECRET")
	override(&c.Auth.Password, "APP_PASSWORD")
	override(&c.Auth.PasswordHash, "APP_PASSWORD_HASH")

	override(&c.Store.Backend, "STORE_BACKEND")
	override(&c.Store.Sheets.SpreadsheetID, "GOOGLE_SHEETS_ID")
	override(&c.Store.Sheets.ServiceAccountEmail, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
	override(&c.Store.Sheets.PrivateKey, "GOOGLE_PRIVATE_KEY")
	override(&c.Store.Postgres.DSN, "DATABASE_URL")

	override(&c.OIDC.Issuer, "OIDC_ISSUER")
	override(&c.OIDC.ClientID, "OIDC_CLIENT_ID")
	override(&c.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	override(&c.OIDC.RedirectURL, "OIDC_REDIRECT_URL")
	if v := os.Getenv("OIDC_ALLOWED_EMAILS"); v != "" {
		c.OIDC.AllowedEmails = nil
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				c.OIDC.AllowedEmails = append(c.OIDC.AllowedEmails, e)
			}
		}
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSheets
	}
	def := domain.DefaultTables()
	if c.Tables.Clients == "" {
		c.Tables.Clients = def.Clients
	}
	if c.Tables.Recipients == "" {
		c.Tables.Recipients = def.Recipients
	}
	if c.Tables.Log == "" {
		c.Tables.Log = def.Log
	}
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		missing = append(missing, "APP_PASSWORD or APP_PASSWORD_HASH")
	}

	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.Sheets.SpreadsheetID == "" {
			missing = append(missing, "GOOGLE_SHEETS_ID")
		}
		if c.Store.Sheets.ServiceAccountEmail == "" {
			missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
		}
		if c.Store.Sheets.PrivateKey == "" {
			missing = append(missing, "GOOGLE_PRIVATE_KEY")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, c.Store.Backend)
	}

	if c.OIDC.Issuer != "" {
		if c.OIDC.ClientID == "" {
			missing = append(missing, "OIDC_CLIENT_ID")
		}
		if c.OIDC.RedirectURL == "" {
			missing = append(missing, "OIDC_REDIRECT_URL")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// TableNames returns the configured sheet names.
func (c *Config) TableNames() domain.Tables {
	return domain.Tables{Clients: c.Tables.Clients, Recipients: c.Tables.Recipients, Log: c.Tables.Log}
}

// SSOEnabled reports whether an OIDC issuer is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDC.Issuer != ""
}
