package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables with the TASKAPI_
// prefix (e.g. TASKAPI_SERVER_PORT, TASKAPI_DATABASE_URL). Environment
// variables take precedence over defaults. Returns a validated Config or
// an error describing what is missing or malformed.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080) // 7 days
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.reminder_hour", 9)

	v.SetEnvPrefix("TASKAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface nested keys during Unmarshal;
	// binding each key explicitly makes the env lookup reliable.
	for _, key := range []string{
		"server.port", "server.log_level",
		"database.url",
		"auth.jwt_secret", "auth.token_lifetime_minutes", "auth.refresh_token_lifetime_minutes",
		"mail.host", "mail.port", "mail.username", "mail.password", "mail.from", "mail.reminder_hour",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
