// Package config loads the optional YAML configuration used by the index
// and serve commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jparise/gh-since/internal/timeparse"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	GitHub  GitHubConfig  `yaml:"github"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// GitHubConfig controls how repositories are fetched while indexing.
type GitHubConfig struct {
	RepoTypes    []string `yaml:"repo_types" validate:"min=1,dive,oneof=sources forks archives mirrors all"`
	CacheTTL     Duration `yaml:"cache_ttl"`
	DisableCache bool     `yaml:"disable_cache"`
	RateLimit    float64  `yaml:"rate_limit" validate:"gte=0"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Address      string   `yaml:"address" validate:"required"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	DefaultLimit int      `yaml:"default_limit" validate:"min=1,ltefield=MaxLimit"`
	MaxLimit     int      `yaml:"max_limit" validate:"min=1"`
	CORSOrigins  []string `yaml:"cors_origins" validate:"dive,required"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Duration is a time.Duration that accepts the compact forms understood by
// timeparse.ParseDuration ("90s", "12h", "1d", "2w") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := timeparse.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: defaultCatalogPath()},
		GitHub: GitHubConfig{
			RepoTypes: []string{"sources"},
			CacheTTL:  Duration(24 * time.Hour),
		},
		Server: ServerConfig{
			Address:      "127.0.0.1:8080",
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			DefaultLimit: 100,
			MaxLimit:     1000,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func defaultCatalogPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "gh-since" + string(os.PathSeparator) + "catalog.db"
	}
	return "gh-since.db"
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data into cfg, keeping the existing values of omitted
// fields, and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return Validate(cfg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
