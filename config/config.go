package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment at startup
type Config struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	DBURL             string `mapstructure:"db_url"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime_minutes"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	JWTSecret      string `mapstructure:"jwt_secret"`
	JWTExpiryHours int    `mapstructure:"jwt_expiry_hours"`
	CORSOrigins    string `mapstructure:"cors_origins"`

	TwilioAccountSID     string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken      string `mapstructure:"twilio_auth_token"`
	TwilioPhoneNumber    string `mapstructure:"twilio_phone_number"`
	TwilioWhatsAppNumber string `mapstructure:"twilio_whatsapp_number"`

	ReminderSchedule     string `mapstructure:"reminder_schedule"`
	VisaExpiryWindowDays int    `mapstructure:"visa_expiry_window_days"`

	ImportMaxUploadMB int    `mapstructure:"import_max_upload_mb"`
	DefaultCurrency   string `mapstructure:"default_currency"`
}

// AppConfig is the configuration loaded by Load
var AppConfig = defaultConfig()

var defaults = map[string]interface{}{
	"port":                         "8080",
	"gin_mode":                     "release",
	"db_url":                       "",
	"db_max_open_conns":            50,
	"db_max_idle_conns":            10,
	"db_conn_max_lifetime_minutes": 5,
	"log_level":                    "info",
	"log_format":                   "json",
	"jwt_secret":                   "",
	"jwt_expiry_hours":             24,
	"cors_origins":                 "http://localhost:3000",
	"twilio_account_sid":           "",
	"twilio_auth_token":            "",
	"twilio_phone_number":          "",
	"twilio_whatsapp_number":       "",
	"reminder_schedule":            "0 9 * * *",
	"visa_expiry_window_days":      30,
	"import_max_upload_mb":         10,
	"default_currency":             "USD",
}

func defaultConfig() *Config {
	return &Config{
		Port:                 "8080",
		GinMode:              "release",
		LogLevel:             "info",
		LogFormat:            "json",
		JWTExpiryHours:       24,
		ReminderSchedule:     "0 9 * * *",
		VisaExpiryWindowDays: 30,
		ImportMaxUploadMB:    10,
		DefaultCurrency:      "USD",
	}
}

// Load reads .env (if present) and the process environment into AppConfig
func Load() (*Config, error) {
	// A missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	AppConfig = &cfg
	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.VisaExpiryWindowDays <= 0 {
		return errors.New("VISA_EXPIRY_WINDOW_DAYS must be positive")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TwilioEnabled reports whether reminder delivery credentials are configured
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}
