package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Lock     LockConfig     `mapstructure:"lock"     validate:"required"`
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

// LockConfig contains the session lock lease policy. TTLs are expressed in
// milliseconds to match the wire format of the lock endpoints.
type LockConfig struct {
	// DefaultTTLMs is applied when an acquire request omits a TTL.
	DefaultTTLMs int `mapstructure:"default_ttl_ms" validate:"required,gt=0"`

	// MinTTLMs is the floor for caller-supplied TTLs.
	MinTTLMs int `mapstructure:"min_ttl_ms" validate:"required,gt=0"`
}
