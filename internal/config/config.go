// Package config provides configuration loading for actinium.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the store connection.
const (
	DefaultDBName = "quanta"
	DefaultHost   = "localhost"
)

// Options describes how to reach the profile store plus ambient settings.
//
// User, Password and Host are recognized for server-backed stores; the
// embedded DuckDB store only consumes DBName and DataDir and logs when
// credentials are supplied.
type Options struct {
	// User is the store credential user name.
	User string `yaml:"user"`
	// Password is the store credential password.
	Password string `yaml:"password"`
	// DBName is the target database name. Defaults to "quanta".
	DBName string `yaml:"dbname"`
	// Host is the store network address. Defaults to "localhost".
	Host string `yaml:"host"`
	// DataDir is where the embedded database file lives.
	// Defaults to ~/.actinium.
	DataDir string `yaml:"data_dir"`
	// LogLevel sets diagnostic verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Options {
	dataDir := ".actinium"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".actinium")
	}
	return Options{
		DBName:   DefaultDBName,
		Host:     DefaultHost,
		DataDir:  dataDir,
		LogLevel: "info",
	}
}

// Load builds Options from defaults, an optional YAML file, and ACTINIUM_*
// environment variable overrides, in that order. A missing file is not an
// error; an empty path skips the file layer entirely.
func Load(path string) (Options, error) {
	opts := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults + env.
		case err != nil:
			return Options{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &opts); err != nil {
				return Options{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	opts.mergeFromEnv()

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// mergeFromEnv applies environment variable overrides.
func (o *Options) mergeFromEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"ACTINIUM_DB_USER", &o.User},
		{"ACTINIUM_DB_PASSWORD", &o.Password},
		{"ACTINIUM_DB_NAME", &o.DBName},
		{"ACTINIUM_DB_HOST", &o.Host},
		{"ACTINIUM_DATA_DIR", &o.DataDir},
		{"ACTINIUM_LOG_LEVEL", &o.LogLevel},
	}
	for _, ov := range overrides {
		if v, ok := os.LookupEnv(ov.key); ok {
			*ov.dst = v
		}
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.DBName == "" {
		return fmt.Errorf("dbname must not be empty")
	}
	if o.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch o.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", o.LogLevel)
	}
	return nil
}

// DatabasePath returns the embedded database file location for these options.
func (o Options) DatabasePath() string {
	return filepath.Join(o.DataDir, o.DBName+".duckdb")
}
