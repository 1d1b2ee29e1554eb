package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkfinder/internal/index"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Vault  VaultConfig       `yaml:"vault" toml:"vault"`
	Index  IndexConfig       `yaml:"index" toml:"index"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
	Events EventsConfig      `yaml:"events" toml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" toml:"log_level"`
	LogFormat string     `yaml:"log_format" toml:"log_format"`
	HTTP      HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
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

var extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// VaultConfig holds the vault directory and which files in it are documents.
type VaultConfig struct {
	Path       string   `yaml:"path" toml:"path"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.Match(extensionRe).Error("must look like .md"))),
	)
}

// IndexConfig tunes indexing and matching.
type IndexConfig struct {
	// Debounce collapses bursts of change events for one document.
	Debounce time.Duration `yaml:"debounce" toml:"debounce"`
	// RenameWindow pairs a rename of a document with the create of its new path.
	RenameWindow time.Duration `yaml:"rename_window" toml:"rename_window"`
	MaxResults   int           `yaml:"max_results" toml:"max_results"`
	// FuzzyMinLength skips in-order character matching for shorter queries.
	// 0 keeps it for every query.
	FuzzyMinLength int `yaml:"fuzzy_min_length" toml:"fuzzy_min_length"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.RenameWindow, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxResults, validation.Required, validation.Min(1), validation.Max(index.MaxResults)),
		validation.Field(&c.FuzzyMinLength, validation.Min(0)),
	)
}

// Options returns the index options this configuration asks for.
func (c *IndexConfig) Options() []index.Option {
	return []index.Option{
		index.WithMaxResults(c.MaxResults),
		index.WithFuzzyMinLength(c.FuzzyMinLength),
	}
}

// WatchOptions returns the watcher timings.
func (c *IndexConfig) WatchOptions() index.WatchOptions {
	return index.WatchOptions{Debounce: c.Debounce, RenameWindow: c.RenameWindow}
}

// EventsConfig configures the SSE event stream.
type EventsConfig struct {
	// Throttle is the minimum interval between index.updated events.
	Throttle time.Duration `yaml:"throttle" toml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
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

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:       "./vault",
			Extensions: []string{".md", ".markdown"},
		},
		Index: IndexConfig{
			Debounce:     300 * time.Millisecond,
			RenameWindow: 200 * time.Millisecond,
			MaxResults:   index.MaxResults,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
