// Package config provides configuration management for session-saver.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (SESSION_SAVER_*)
// 3. Project config (.session-saver/config.yaml in the project directory)
// 4. Home config (~/.session-saver/config.yaml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all session-saver configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// Verbose enables human-readable diagnostics on stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// LogLevel is the zerolog level for diagnostics (default: warn).
	LogLevel string `yaml:"log_level" json:"log_level"`

	// SessionsFile is the ledger file name inside the project directory.
	SessionsFile string `yaml:"sessions_file" json:"sessions_file"`

	// MaxHistory bounds the number of retained entries.
	MaxHistory int `yaml:"max_history" json:"max_history"`

	// StaleLockAfter is the Go duration after which a lock marker is reclaimed.
	StaleLockAfter string `yaml:"stale_lock_after" json:"stale_lock_after"`

	// QuarantineCorrupt keeps a corrupt ledger aside instead of discarding it.
	// Nil means "not configured" so lower-priority sources are not overridden.
	QuarantineCorrupt *bool `yaml:"quarantine_corrupt,omitempty" json:"quarantine_corrupt,omitempty"`

	// Advisory controls the one-time .gitignore hint when a ledger is created.
	Advisory *bool `yaml:"advisory,omitempty" json:"advisory,omitempty"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput         = "table"
	defaultLogLevel       = "warn"
	defaultSessionsFile   = ".claude-sessions.json"
	defaultMaxHistory     = 100
	defaultStaleLockAfter = "5m"
)

// Environment variable names.
const (
	EnvConfig            = "SESSION_SAVER_CONFIG"
	EnvOutput            = "SESSION_SAVER_OUTPUT"
	EnvVerbose           = "SESSION_SAVER_VERBOSE"
	EnvLogLevel          = "SESSION_SAVER_LOG_LEVEL"
	EnvSessionsFile      = "SESSION_SAVER_SESSIONS_FILE"
	EnvMaxHistory        = "SESSION_SAVER_MAX_HISTORY"
	EnvStaleLockAfter    = "SESSION_SAVER_STALE_LOCK_AFTER"
	EnvQuarantineCorrupt = "SESSION_SAVER_QUARANTINE_CORRUPT"
	EnvAdvisory          = "SESSION_SAVER_ADVISORY"
)

// EnvVars lists every environment variable the config layer reads.
func EnvVars() []string {
	return []string{
		EnvConfig,
		EnvOutput,
		EnvVerbose,
		EnvLogLevel,
		EnvSessionsFile,
		EnvMaxHistory,
		EnvStaleLockAfter,
		EnvQuarantineCorrupt,
		EnvAdvisory,
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:            defaultOutput,
		LogLevel:          defaultLogLevel,
		SessionsFile:      defaultSessionsFile,
		MaxHistory:        defaultMaxHistory,
		StaleLockAfter:    defaultStaleLockAfter,
		QuarantineCorrupt: boolPtr(false),
		Advisory:          boolPtr(true),
	}
}

// Load loads configuration for projectDir with proper precedence.
// Priority: flags > env > project > home > defaults.
// The returned config is always usable; the error collects unreadable config
// files and invalid values that were replaced by defaults.
func Load(projectDir string, flagOverrides *Config) (*Config, error) {
	cfg := Default()
	var problems []error

	homeConfig, err := loadFromPath(HomeConfigPath())
	if err != nil {
		problems = append(problems, err)
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(ProjectConfigPath(projectDir))
	if err != nil {
		problems = append(problems, err)
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := cfg.normalize(); err != nil {
		problems = append(problems, err)
	}

	return cfg, errors.Join(problems...)
}

// FromFlags returns the defaults overlaid with flagOverrides only. It serves
// callers that need settings before the project directory is known.
func FromFlags(flagOverrides *Config) *Config {
	cfg := Default()
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}
	_ = cfg.normalize() //nolint:errcheck // invalid flag values are reported by Load
	return cfg
}

// StaleAfter returns the parsed lock reclaim threshold.
func (c *Config) StaleAfter() time.Duration {
	d, err := time.ParseDuration(c.StaleLockAfter)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultStaleLockAfter)
	}
	return d
}

// QuarantineEnabled reports whether corrupt ledgers are kept aside.
func (c *Config) QuarantineEnabled() bool {
	return c.QuarantineCorrupt != nil && *c.QuarantineCorrupt
}

// AdvisoryEnabled reports whether the new-ledger hint is printed.
func (c *Config) AdvisoryEnabled() bool {
	return c.Advisory == nil || *c.Advisory
}

// fieldCheck validates one field and knows how to restore its default.
type fieldCheck struct {
	check func(c *Config) error
	reset func(c, def *Config)
}

var fieldChecks = []fieldCheck{
	{
		check: func(c *Config) error {
			switch c.Output {
			case "table", "json", "yaml":
				return nil
			}
			return fmt.Errorf("output %q: must be table, json or yaml", c.Output)
		},
		reset: func(c, def *Config) { c.Output = def.Output },
	},
	{
		check: func(c *Config) error {
			if c.SessionsFile == "" || c.SessionsFile == "." || c.SessionsFile == ".." ||
				strings.ContainsAny(c.SessionsFile, `/\`) {
				return fmt.Errorf("sessions_file %q: must be a plain file name", c.SessionsFile)
			}
			return nil
		},
		reset: func(c, def *Config) { c.SessionsFile = def.SessionsFile },
	},
	{
		check: func(c *Config) error {
			if c.MaxHistory <= 0 {
				return fmt.Errorf("max_history %d: must be positive", c.MaxHistory)
			}
			return nil
		},
		reset: func(c, def *Config) { c.MaxHistory = def.MaxHistory },
	},
	{
		check: func(c *Config) error {
			if d, err := time.ParseDuration(c.StaleLockAfter); err != nil || d <= 0 {
				return fmt.Errorf("stale_lock_after %q: must be a positive duration", c.StaleLockAfter)
			}
			return nil
		},
		reset: func(c, def *Config) { c.StaleLockAfter = def.StaleLockAfter },
	},
}

// Validate reports invalid values without changing them.
func (c *Config) Validate() error {
	var problems []error
	for _, fc := range fieldChecks {
		if err := fc.check(c); err != nil {
			problems = append(problems, err)
		}
	}
	return errors.Join(problems...)
}

// normalize replaces invalid values with defaults and reports what it replaced.
func (c *Config) normalize() error {
	var problems []error
	def := Default()
	for _, fc := range fieldChecks {
		if err := fc.check(c); err != nil {
			problems = append(problems, err)
			fc.reset(c, def)
		}
	}
	return errors.Join(problems...)
}

// HomeConfigPath returns the home config path.
func HomeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".session-saver", "config.yaml")
}

// ProjectConfigPath returns the project config path for projectDir, or the
// SESSION_SAVER_CONFIG override. An empty projectDir means the working directory.
func ProjectConfigPath(projectDir string) string {
	if override := strings.TrimSpace(os.Getenv(EnvConfig)); override != "" {
		return override
	}
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		projectDir = cwd
	}
	return filepath.Join(projectDir, ".session-saver", "config.yaml")
}

// loadFromPath loads config from a YAML file. A missing file is not an error.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	// #nosec G304 -- config path comes from the user's home, project or env.
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v, ok := getEnvBool(EnvVerbose); ok && v {
		cfg.Verbose = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvSessionsFile); v != "" {
		cfg.SessionsFile = v
	}
	if v := os.Getenv(EnvMaxHistory); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxHistory = n
		}
	}
	if v := os.Getenv(EnvStaleLockAfter); v != "" {
		cfg.StaleLockAfter = v
	}
	if v, ok := getEnvBool(EnvQuarantineCorrupt); ok {
		cfg.QuarantineCorrupt = boolPtr(v)
	}
	if v, ok := getEnvBool(EnvAdvisory); ok {
		cfg.Advisory = boolPtr(v)
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// mergeBool overwrites dst with src when src was explicitly configured.
func mergeBool(dst **bool, src *bool) {
	if src != nil {
		*dst = boolPtr(*src)
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}
	mergeStr(&dst.LogLevel, src.LogLevel)
	mergeStr(&dst.SessionsFile, src.SessionsFile)
	mergeInt(&dst.MaxHistory, src.MaxHistory)
	mergeStr(&dst.StaleLockAfter, src.StaleLockAfter)
	mergeBool(&dst.QuarantineCorrupt, src.QuarantineCorrupt)
	mergeBool(&dst.Advisory, src.Advisory)
	return dst
}

// getEnvBool parses a boolean env var and reports whether it was set to a
// recognizable value.
func getEnvBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func boolPtr(b bool) *bool {
	return &b
}
