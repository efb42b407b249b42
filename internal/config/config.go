// Package config loads and validates application configuration.
package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// MailConfig contains SMTP settings for the deadline reminder job.
// When Host is empty the reminder scheduler is not started.
type MailConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"          validate:"omitempty,gt=0,lt=65536"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	From         string `mapstructure:"from"          validate:"omitempty,email"`
	ReminderHour int    `mapstructure:"reminder_hour" validate:"gte=0,lt=24"`
}
