package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/venapictures/vena/internal/notify"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App           ApplicationConfig  `yaml:"app"`
	Storage       StorageConfig      `yaml:"storage"`
	Auth          AuthConfig         `yaml:"auth"`
	Session       SessionConfig      `yaml:"session"`
	Notifications NotificationConfig `yaml:"notifications"`
	Fixtures      FixturesConfig     `yaml:"fixtures"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Notifications.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where the session flag is persisted.
//
// Backend "fs" keeps one file per key under Path (a directory) and is
// watched for external changes. Backend "sqlite" uses Path as the database
// file.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(storage.BackendFS, storage.BackendSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no bearer token required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// The session gate applies in both modes.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when bearer authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SessionConfig holds the reference credentials of the login screen and
// the simulated verification delay.
type SessionConfig struct {
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Delay    time.Duration `yaml:"delay"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required, validation.Length(session.MinPasswordLength, 0)),
		validation.Field(&c.Delay, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
	)
}

// NotificationConfig holds notification defaults.
type NotificationConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// Validate validates the notification configuration.
func (c *NotificationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// FixturesConfig optionally points to a seed file replacing the embedded one.
type FixturesConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Backend: storage.BackendFS,
			Path:    "./data",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Session: SessionConfig{
			Email:    session.DefaultEmail,
			Password: session.DefaultPassword,
			Delay:    session.DefaultDelay,
		},
		Notifications: NotificationConfig{
			DefaultTTL: notify.DefaultDuration,
		},
	}
}
