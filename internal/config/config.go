// Package config loads application configuration from a config file,
// environment variables, and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MERGEVOTE_REPOSITORY.
const EnvPrefix = "MERGEVOTE"

// DotEnvFile is read from the working directory when present. Variables
// already set in the environment take precedence over it.
const DotEnvFile = ".env"

// Config holds the application configuration.
type Config struct {
	GitHub        GitHubConfig    `mapstructure:"github"`
	Repository    string          `mapstructure:"repository"`
	PollInterval  time.Duration   `mapstructure:"poll_interval"`
	MinRequestAge time.Duration   `mapstructure:"min_request_age"`
	Window        WindowConfig    `mapstructure:"window"`
	Threshold     ThresholdConfig `mapstructure:"threshold"`
	Voter         VoterConfig     `mapstructure:"voter"`
	Merge         MergeConfig     `mapstructure:"merge"`
	ExitOnChange  bool            `mapstructure:"exit_on_change"`
	ListenAddr    string          `mapstructure:"listen_addr"`
	DBPath        string          `mapstructure:"db_path"`
	Log           LogConfig       `mapstructure:"log"`
}

// GitHubConfig holds the bot account credentials.
type GitHubConfig struct {
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
}

// WindowConfig holds the voting window lengths. The after-hours band is
// expressed in hours of the day in Timezone and may wrap past midnight.
type WindowConfig struct {
	Initial         time.Duration `mapstructure:"initial"`
	AfterHours      time.Duration `mapstructure:"after_hours"`
	AfterHoursStart int           `mapstructure:"after_hours_start"`
	AfterHoursEnd   int           `mapstructure:"after_hours_end"`
	Timezone        string        `mapstructure:"timezone"`
	Extended        time.Duration `mapstructure:"extended"`
}

// ThresholdConfig holds the approval threshold policy.
type ThresholdConfig struct {
	Minimum      float64 `mapstructure:"minimum"`
	WatcherRatio float64 `mapstructure:"watcher_ratio"`
	Fixed        float64 `mapstructure:"fixed"`
}

// VoterConfig holds voter eligibility rules.
type VoterConfig struct {
	MinAge time.Duration `mapstructure:"min_age"`
}

// MergeConfig holds merge settings.
type MergeConfig struct {
	Method string `mapstructure:"method"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration and returns a validated Config. Sources, from
// lowest to highest precedence: defaults, configFile (YAML, optional),
// DotEnvFile, and MERGEVOTE_* environment variables. Nested keys map to
// environment variables with "." replaced by "_", e.g. window.initial is
// MERGEVOTE_WINDOW_INITIAL.
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv copies variables from path into the environment without
// overriding ones that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	for k, val := range envMap {
		if _, exists := os.LookupEnv(k); !exists {
			if err := os.Setenv(k, val); err != nil {
				return fmt.Errorf("set %s from %s: %w", k, path, err)
			}
		}
	}
	return nil
}

var defaults = map[string]any{
	"github.token":             "",
	"github.username":          "",
	"repository":               "",
	"poll_interval":            3 * time.Minute,
	"min_request_age":          time.Duration(0),
	"window.initial":           2 * time.Hour,
	"window.after_hours":       3 * time.Hour,
	"window.after_hours_start": 22,
	"window.after_hours_end":   10,
	"window.timezone":          "America/Los_Angeles",
	"window.extended":          6 * time.Hour,
	"threshold.minimum":        1.0,
	"threshold.watcher_ratio":  0.03,
	"threshold.fixed":          0.0,
	"voter.min_age":            720 * time.Hour,
	"merge.method":             "merge",
	"exit_on_change":           true,
	"listen_addr":              "127.0.0.1:8080",
	"db_path":                  "mergevote.db",
	"log.level":                "info",
	"log.format":               "text",
}

func setDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func bindEnvs(v *viper.Viper) {
	for k := range defaults {
		_ = v.BindEnv(k)
	}
}

// Validate checks the configuration for values the decision engine cannot run with.
// It does not require GitHub credentials; see RequireGitHub.
func (c *Config) Validate() error {
	var errs []error

	if parts := strings.Split(c.Repository, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		errs = append(errs, fmt.Errorf("repository %q must have the form owner/repo", c.Repository))
	}

	positive := map[string]time.Duration{
		"poll_interval":   c.PollInterval,
		"window.initial":  c.Window.Initial,
		"window.extended": c.Window.Extended,
	}
	for _, k := range []string{"poll_interval", "window.initial", "window.extended"} {
		if positive[k] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", k, positive[k]))
		}
	}

	nonNegative := map[string]time.Duration{
		"min_request_age":    c.MinRequestAge,
		"window.after_hours": c.Window.AfterHours,
		"voter.min_age":      c.Voter.MinAge,
	}
	for _, k := range []string{"min_request_age", "window.after_hours", "voter.min_age"} {
		if nonNegative[k] < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", k, nonNegative[k]))
		}
	}

	if c.Window.Extended < max(c.Window.Initial, c.Window.AfterHours) {
		errs = append(errs, fmt.Errorf("window.extended (%s) must be at least window.initial and window.after_hours", c.Window.Extended))
	}

	if h := c.Window.AfterHoursStart; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("window.after_hours_start must be an hour in 0..23, got %d", h))
	}
	if h := c.Window.AfterHoursEnd; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("window.after_hours_end must be an hour in 0..23, got %d", h))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.Merge.Method {
	case "merge", "squash", "rebase":
	default:
		errs = append(errs, fmt.Errorf("merge.method must be merge, squash, or rebase, got %q", c.Merge.Method))
	}

	if c.Threshold.Minimum <= 0 {
		errs = append(errs, fmt.Errorf("threshold.minimum must be positive, got %g", c.Threshold.Minimum))
	}
	if c.Threshold.WatcherRatio < 0 {
		errs = append(errs, fmt.Errorf("threshold.watcher_ratio must not be negative, got %g", c.Threshold.WatcherRatio))
	}
	if c.Threshold.Fixed < 0 {
		errs = append(errs, fmt.Errorf("threshold.fixed must not be negative, got %g", c.Threshold.Fixed))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RequireGitHub returns an error unless both the bot token and username are set.
func (c *Config) RequireGitHub() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, EnvPrefix+"_GITHUB_TOKEN")
	}
	if c.GitHub.Username == "" {
		missing = append(missing, EnvPrefix+"_GITHUB_USERNAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing GitHub credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location loads the after-hours timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("window.timezone %q: %w", c.Window.Timezone, err)
	}
	return loc, nil
}

// Redacted returns the effective configuration as nested maps with durations
// in their string form and the GitHub token masked, ready for display.
func (c *Config) Redacted() map[string]any {
	token := ""
	if c.GitHub.Token != "" {
		token = "********"
	}

	return map[string]any{
		"github": map[string]any{
			"token":    token,
			"username": c.GitHub.Username,
		},
		"repository":      c.Repository,
		"poll_interval":   c.PollInterval.String(),
		"min_request_age": c.MinRequestAge.String(),
		"window": map[string]any{
			"initial":           c.Window.Initial.String(),
			"after_hours":       c.Window.AfterHours.String(),
			"after_hours_start": c.Window.AfterHoursStart,
			"after_hours_end":   c.Window.AfterHoursEnd,
			"timezone":          c.Window.Timezone,
			"extended":          c.Window.Extended.String(),
		},
		"threshold": map[string]any{
			"minimum":       c.Threshold.Minimum,
			"watcher_ratio": c.Threshold.WatcherRatio,
			"fixed":         c.Threshold.Fixed,
		},
		"voter": map[string]any{
			"min_age": c.Voter.MinAge.String(),
		},
		"merge": map[string]any{
			"method": c.Merge.Method,
		},
		"exit_on_change": c.ExitOnChange,
		"listen_addr":    c.ListenAddr,
		"db_path":        c.DBPath,
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
}
