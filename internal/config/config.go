package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robottwo/tern/internal/core"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the startup configuration. Keys missing from the file keep
// their defaults and keys present replace them, false included. Sizes below
// 1 and unknown log levels fall back to the defaults with a warning.
type Config struct {
	HistorySize   int    `yaml:"history_size"`
	JobsSize      int    `yaml:"jobs_size"`
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file,omitempty"`
	LogClean      bool   `yaml:"log_clean"`
	Analytics     bool   `yaml:"analytics"`
	AnalyticsFile string `yaml:"analytics_file,omitempty"`
	Autocd        bool   `yaml:"autocd"`
	ExpandEnv     bool   `yaml:"expand_env"`
	PromptColor   bool   `yaml:"prompt_color"`

	// Warnings collects the problems that were tolerated while loading.
	Warnings []error `yaml:"-"`
}

var ErrInvalid = errors.New("invalid configuration")

func Default() *Config {
	return &Config{
		HistorySize: core.DefaultHistorySize,
		JobsSize:    core.DefaultJobsSize,
		LogLevel:    "info",
		Analytics:   true,
		ExpandEnv:   true,
		PromptColor: true,
	}
}

// Load reads the YAML file at path and applies TERN_* environment
// overrides. A missing file is not an error. Invalid values are replaced by
// their defaults and reported in Warnings, unless strict is set, in which
// case the first problem aborts loading.
func Load(path string, strict bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		if strict {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		cfg.warn(err)
	default:
		if err := cfg.decode(data, strict); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
		}
	}

	cfg.applyEnv()
	cfg.validate()

	if strict && len(cfg.Warnings) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(cfg.Warnings...))
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, strict bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(c)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if strict {
		return err
	}

	// Unknown keys and mistyped values leave the rest of the file applied.
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		for _, msg := range typeErr.Errors {
			c.warn(errors.New(msg))
		}
		return nil
	}
	*c = *Default()
	c.warn(err)
	return nil
}

func (c *Config) applyEnv() {
	if val, ok := os.LookupEnv("TERN_HISTORY_SIZE"); ok {
		c.HistorySize = c.envInt("TERN_HISTORY_SIZE", val, c.HistorySize)
	}
	if val, ok := os.LookupEnv("TERN_JOBS_SIZE"); ok {
		c.JobsSize = c.envInt("TERN_JOBS_SIZE", val, c.JobsSize)
	}
	if val, ok := os.LookupEnv("TERN_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("TERN_AUTOCD"); ok {
		c.Autocd = IsTruthy(val)
	}
	if val, ok := os.LookupEnv("TERN_ANALYTICS"); ok {
		c.Analytics = IsTruthy(val)
	}
}

func (c *Config) envInt(name, val string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		c.warn(fmt.Errorf("%s: %q is not a number", name, val))
		return fallback
	}
	return n
}

func (c *Config) validate() {
	if c.HistorySize < 1 {
		c.warn(fmt.Errorf("history_size must be at least 1, got %d", c.HistorySize))
		c.HistorySize = core.DefaultHistorySize
	}
	if c.JobsSize < 1 {
		c.warn(fmt.Errorf("jobs_size must be at least 1, got %d", c.JobsSize))
		c.JobsSize = core.DefaultJobsSize
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		c.warn(fmt.Errorf("log_level: %w", err))
		c.LogLevel = "info"
	}
}

func (c *Config) warn(err error) {
	c.Warnings = append(c.Warnings, err)
}

// Level is the configured log level. Load guarantees it parses.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// IsTruthy reports whether an environment value switches a setting on.
func IsTruthy(val string) bool {
	val = strings.ToLower(strings.TrimSpace(val))
	return val == "1" || val == "true" || val == "yes" || val == "on"
}

// Save writes cfg to path as YAML. Concurrent writers are serialized with
// a lock file and the file is replaced atomically.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer func() {
		_ = flockUnlock(lockFile.Fd())
		_ = lockFile.Close()
	}()

	if err := flockExclusive(lockFile.Fd()); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
