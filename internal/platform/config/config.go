package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Zoom    ZoomConfig    `mapstructure:"zoom"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Bot     BotConfig     `mapstructure:"bot"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
	Workers WorkersConfig `mapstructure:"workers"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" default:"4000"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"30s"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" default:"60s"`
}

type ZoomConfig struct {
	Host           string        `mapstructure:"host" default:"https://zoom.us"`
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	RedirectURL    string        `mapstructure:"redirect_url"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`
	Account        AccountConfig `mapstructure:"account"`
}

// AccountConfig holds the server-to-server app used for account-level calls.
type AccountConfig struct {
	AccountID     string `mapstructure:"account_id"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	OAuthEndpoint string `mapstructure:"oauth_endpoint" default:"https://zoom.us/oauth/token"`
}

type WebhookConfig struct {
	SecretToken string `mapstructure:"secret_token"`
}

type BotConfig struct {
	Email     string `mapstructure:"email"`
	FirstName string `mapstructure:"first_name" default:"Recording"`
	LastName  string `mapstructure:"last_name" default:"Bot"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name" default:"zm_session"`
	Secure     bool          `mapstructure:"secure" default:"true"`
	StateTTL   time.Duration `mapstructure:"state_ttl" default:"10m"`
}

type StorageConfig struct {
	// RedisURL selects the Redis install-state store when set.
	RedisURL string `mapstructure:"redis_url"`
	// CredentialsDSN selects the SQLite credential store when set.
	CredentialsDSN string `mapstructure:"credentials_dsn"`
	EncryptionKey  string `mapstructure:"encryption_key"`
	MaxConnections int    `mapstructure:"max_connections" default:"4"`
	AutoMigrate    bool   `mapstructure:"auto_migrate" default:"true"`
}

type WorkersConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" default:"5m"`
	RefreshWindow   time.Duration `mapstructure:"refresh_window" default:"10m"`
	PurgeInterval   time.Duration `mapstructure:"purge_interval" default:"1h"`
	PurgeAfter      time.Duration `mapstructure:"purge_after" default:"24h"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" default:"info"`
	Format   string `mapstructure:"format" default:"json"`
	Output   string `mapstructure:"output" default:"stdout"`
	FilePath string `mapstructure:"file_path"`
}

// envBindings maps config keys onto the environment variable names used by
// Zoom's sample apps.
var envBindings = map[string]string{
	"server.port":                 "PORT",
	"zoom.host":                   "ZOOM_HOST",
	"zoom.client_id":              "ZOOM_CLIENT_ID",
	"zoom.client_secret":          "ZOOM_CLIENT_SECRET",
	"zoom.redirect_url":           "ZM_REDIRECT_URL",
	"zoom.account.account_id":     "ZOOM_ACCOUNT_ID",
	"zoom.account.client_id":      "ZOOM_APP_CLIENT_ID",
	"zoom.account.client_secret":  "ZOOM_APP_CLIENT_SECRET",
	"zoom.account.oauth_endpoint": "ZOOM_OAUTH_ENDPOINT",
	"webhook.secret_token":        "ZOOM_WEBHOOK_SECRET_TOKEN",
	"bot.email":                   "ZOOM_BOT_EMAIL",
	"storage.redis_url":           "REDIS_URL",
	"storage.credentials_dsn":     "CREDENTIALS_DSN",
	"storage.encryption_key":      "STORAGE_ENCRYPTION_KEY",
	"logging.level":               "LOG_LEVEL",
	"logging.format":              "LOG_FORMAT",
}

// Load reads the optional YAML file at path and overlays the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDotEnv populates the environment from a dotenv file. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate reports missing settings the HTTP service cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.Zoom.ClientID == "" {
		missing = append(missing, "ZOOM_CLIENT_ID")
	}
	if c.Zoom.ClientSecret == "" {
		missing = append(missing, "ZOOM_CLIENT_SECRET")
	}
	if c.Zoom.RedirectURL == "" {
		missing = append(missing, "ZM_REDIRECT_URL")
	}
	if c.Webhook.SecretToken == "" {
		missing = append(missing, "ZOOM_WEBHOOK_SECRET_TOKEN")
	}
	if c.Storage.CredentialsDSN != "" && c.Storage.EncryptionKey == "" {
		missing = append(missing, "STORAGE_ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
