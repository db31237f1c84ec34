package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the backend configuration, loaded from configs/config.yml and SIMDASH_* env vars.
type Config struct {
	Port      string          `mapstructure:"port"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// GeneratorConfig controls the synthetic temperature worker.
type GeneratorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Tick    time.Duration `mapstructure:"tick"`
}

// AlertsConfig controls critical temperature e-mail delivery.
type AlertsConfig struct {
	Recipient   string        `mapstructure:"recipient"`
	EmailAPIURL string        `mapstructure:"email_api_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RealtimeConfig struct {
	// Buffer is the per-subscriber notification queue length.
	Buffer int `mapstructure:"buffer"`
}

const envPrefix = "SIMDASH"

var errMissingSigningKey = errors.New("auth.signing_key must be set")

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("generator.enabled", true)
	v.SetDefault("generator.tick", 5*time.Second)
	v.SetDefault("alerts.recipient", "admin@example.com")
	v.SetDefault("alerts.email_api_url", "")
	v.SetDefault("alerts.api_key", "")
	v.SetDefault("alerts.timeout", 10*time.Second)
	v.SetDefault("realtime.buffer", 16)
}

// Load reads the config file named "config" from dir (if present), overlays env vars and defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates a populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.SigningKey) == "" {
		return nil, errMissingSigningKey
	}
	if cfg.Generator.Tick <= 0 {
		cfg.Generator.Tick = 5 * time.Second
	}
	if cfg.Realtime.Buffer <= 0 {
		cfg.Realtime.Buffer = 16
	}
	return &cfg, nil
}
