package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration, loaded once in main and
// passed down explicitly.
type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	Session  SessionConfig
	OTP      OTPConfig
	WhatsApp WhatsAppConfig
	LogLevel string
}

type HTTPConfig struct {
	Addr string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

type SessionConfig struct {
	TTL time.Duration
}

type OTPConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type WhatsAppConfig struct {
	AccountSID  string
	AuthToken   string
	From        string
	CountryCode string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Load reads configuration from ORDERDESK_* environment variables with
// sensible defaults for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("orderdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "orderdesk")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("otp.ttl", "5m")
	v.SetDefault("otp.cleanup_interval", "10m")
	v.SetDefault("whatsapp.country_code", "234")
	v.SetDefault("whatsapp.max_attempts", 3)
	v.SetDefault("whatsapp.base_delay", "500ms")
	v.SetDefault("whatsapp.max_delay", "5s")
	v.SetDefault("log.level", "info")

	cfg := &Config{
		HTTP: HTTPConfig{Addr: v.GetString("http.addr")},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			Name:     v.GetString("db.name"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
		},
		Session: SessionConfig{TTL: v.GetDuration("session.ttl")},
		OTP: OTPConfig{
			TTL:             v.GetDuration("otp.ttl"),
			CleanupInterval: v.GetDuration("otp.cleanup_interval"),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID:  v.GetString("whatsapp.account_sid"),
			AuthToken:   v.GetString("whatsapp.auth_token"),
			From:        v.GetString("whatsapp.from"),
			CountryCode: v.GetString("whatsapp.country_code"),
			MaxAttempts: v.GetInt("whatsapp.max_attempts"),
			BaseDelay:   v.GetDuration("whatsapp.base_delay"),
			MaxDelay:    v.GetDuration("whatsapp.max_delay"),
		},
		LogLevel: v.GetString("log.level"),
	}
	return cfg, nil
}
