package app

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application. Defaults live here in
// the composition layer; core packages take explicit options.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	PasswdPath        string `envconfig:"PASSWD_PATH" default:"passwd.txt"`
	RolesPath         string `envconfig:"ROLES_PATH" default:"data/roles.json"`
	UsersPath         string `envconfig:"USERS_PATH" default:"data/users.json"`
	WeakPasswordsPath string `envconfig:"WEAK_PASSWORDS_PATH" default:"data/weak_passwords.txt"`
	AuditPath         string `envconfig:"AUDIT_PATH" default:"audit.log"`

	HashIterations int `envconfig:"HASH_ITERATIONS" default:"600000"`
	HashSaltLength int `envconfig:"HASH_SALT_LENGTH" default:"16"`

	PasswordMinLength int `envconfig:"PASSWORD_MIN_LENGTH" default:"8"`
	PasswordMaxLength int `envconfig:"PASSWORD_MAX_LENGTH" default:"12"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.HashIterations <= 0 {
		return nil, errors.New("hash iterations must be positive")
	}
	if cfg.HashSaltLength <= 0 {
		return nil, errors.New("hash salt length must be positive")
	}
	if cfg.PasswordMinLength <= 0 || cfg.PasswordMaxLength < cfg.PasswordMinLength {
		return nil, errors.New("password length bounds must satisfy 0 < min <= max")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
