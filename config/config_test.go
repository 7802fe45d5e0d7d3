package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing db url", func(c *Config) { c.DBURL = "" }, "DB_URL"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"bad expiry window", func(c *Config) { c.VisaExpiryWindowDays = 0 }, "VISA_EXPIRY_WINDOW_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.DBURL = "postgres://localhost/visadesk"
			cfg.JWTSecret = "secret"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://app.visadesk.io, ,http://localhost:3000 "}
	assert.Equal(t, []string{"https://app.visadesk.io", "http://localhost:3000"}, cfg.AllowedOrigins())
	assert.Empty(t, (&Config{}).AllowedOrigins())
}

func TestTwilioEnabled(t *testing.T) {
	assert.False(t, (&Config{}).TwilioEnabled())
	assert.False(t, (&Config{TwilioAccountSID: "AC123"}).TwilioEnabled())
	assert.True(t, (&Config{TwilioAccountSID: "AC123", TwilioAuthToken: "tok"}).TwilioEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	prev := AppConfig
	t.Cleanup(func() { AppConfig = prev })

	t.Setenv("DB_URL", "postgres://localhost/visadesk")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VISA_EXPIRY_WINDOW_DAYS", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/visadesk", cfg.DBURL)
	assert.Equal(t, 45, cfg.VisaExpiryWindowDays)
	assert.Equal(t, 24, cfg.JWTExpiryHours)
	assert.Equal(t, "0 9 * * *", cfg.ReminderSchedule)
	assert.Same(t, cfg, AppConfig)
}
