package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jparise/gh-since/internal/catalog"
	"github.com/jparise/gh-since/internal/config"
	"github.com/jparise/gh-since/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// serviceFlags are the flags shared by the index and serve commands. Flags
// that were set explicitly override the configuration file.
type serviceFlags struct {
	configPath  string
	catalogPath string
	logLevel    string
	logFormat   string
}

func (sf *serviceFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&sf.configPath, "config", "c", "",
		"path to a YAML configuration file")
	fs.StringVar(&sf.catalogPath, "catalog", "",
		"path to the SQLite catalog (default: user cache directory)")
	fs.StringVar(&sf.logLevel, "log-level", "info",
		"log level: trace, debug, info, warn, error")
	fs.StringVar(&sf.logFormat, "log-format", logger.FormatConsole,
		"log format: console, json")
}

// load reads the configuration file and applies explicitly set flags.
func (sf *serviceFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(sf.configPath)
	if err != nil {
		return nil, err
	}

	if fs.Changed("catalog") {
		cfg.Catalog.Path = sf.catalogPath
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(sf.logLevel)
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = strings.ToLower(sf.logFormat)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer, component string) zerolog.Logger {
	return logger.New(logger.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Component: component,
		Writer:    w,
	})
}

// openCatalog opens the catalog at path, creating its directory if needed.
func openCatalog(path string) (*catalog.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	return catalog.Open(path)
}
