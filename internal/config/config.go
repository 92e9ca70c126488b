package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	GroupByAction = "action"
	GroupByChange = "change"
)

type Config struct {
	P4Command      string   `toml:"p4_command"`
	Depot          string   `toml:"depot"`
	WindowDays     int      `toml:"window_days"`
	Output         string   `toml:"output"`
	SheetName      string   `toml:"sheet_name"`
	GroupBy        string   `toml:"group_by"`        // "action" or "change"
	ExcludeAuthors []string `toml:"exclude_authors"` // case-insensitive author prefixes
	IgnoreFiles    []string `toml:"ignore_files"`    // doublestar globs on depot paths
	TimezoneOffset string   `toml:"timezone_offset"` // e.g. "9h", added to UTC submit times
	Charset        string   `toml:"charset"`         // "" = utf-8
	Workers        int      `toml:"workers"`         // describe fetch parallelism
	CommandTimeout string   `toml:"command_timeout"` // "" = none
	DBPath         string   `toml:"db_path"`
	Archive        bool     `toml:"archive"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"` // "console" or "json"

	envErrs []error // bad P4CL_* values, reported by Validate
}

// DefaultPath is the config file read when no explicit path is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "p4cl", "config.toml"), nil
}

func Default(home string) *Config {
	return &Config{
		P4Command:      "p4",
		Depot:          "//Sol/Dev1/...",
		WindowDays:     10,
		Output:         "build_history.xlsx",
		SheetName:      "Sheet1",
		GroupBy:        GroupByAction,
		ExcludeAuthors: []string{"jenkins"},
		TimezoneOffset: "9h",
		Workers:        1,
		DBPath:         filepath.Join(home, ".config", "p4cl", "p4cl.db"),
		Archive:        true,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load reads the config file at path (the default location when path is
// empty), then applies .env and P4CL_* environment overrides.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// .env may carry P4PORT/P4USER/P4CLIENT for the p4 child processes
	_ = godotenv.Load()

	cfg := Default(home)

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	path = expandHome(path, home)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	applyEnv(cfg)

	// expand ~ in paths
	cfg.Output = expandHome(cfg.Output, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("P4CL_DEPOT"); v != "" {
		cfg.Depot = v
	}
	if v := os.Getenv("P4CL_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("P4CL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("P4CL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cfg.envErrs = append(cfg.envErrs, fmt.Errorf("P4CL_WORKERS: %q is not a number", v))
		} else {
			cfg.Workers = n
		}
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	result = multierror.Append(result, c.envErrs...)

	if strings.TrimSpace(c.P4Command) == "" {
		result = multierror.Append(result, fmt.Errorf("p4_command must not be empty"))
	}
	if c.Depot == "" {
		result = multierror.Append(result, fmt.Errorf("depot must not be empty"))
	}
	if c.WindowDays <= 0 {
		result = multierror.Append(result, fmt.Errorf("window_days must be positive, got %d", c.WindowDays))
	}
	if c.GroupBy != GroupByAction && c.GroupBy != GroupByChange {
		result = multierror.Append(result, fmt.Errorf("group_by must be %q or %q, got %q", GroupByAction, GroupByChange, c.GroupBy))
	}
	if _, err := c.Offset(); err != nil {
		result = multierror.Append(result, fmt.Errorf("timezone_offset: %w", err))
	}
	if _, err := c.Timeout(); err != nil {
		result = multierror.Append(result, fmt.Errorf("command_timeout: %w", err))
	}
	if c.Charset != "" {
		if _, err := htmlindex.Get(c.Charset); err != nil {
			result = multierror.Append(result, fmt.Errorf("charset %q: %w", c.Charset, err))
		}
	}
	for _, pattern := range c.IgnoreFiles {
		if !doublestar.ValidatePattern(pattern) {
			result = multierror.Append(result, fmt.Errorf("ignore_files: bad pattern %q", pattern))
		}
	}
	if c.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		result = multierror.Append(result, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}

	return result.ErrorOrNil()
}

// Offset is the shift applied to UTC submit times.
func (c *Config) Offset() (time.Duration, error) {
	if c.TimezoneOffset == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TimezoneOffset)
}

// Timeout is the per-command deadline; zero means none.
func (c *Config) Timeout() (time.Duration, error) {
	if c.CommandTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
