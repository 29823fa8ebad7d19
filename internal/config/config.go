package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/planner"
	"github.com/ppiankov/tripcheck/internal/replan"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

// Versions selects where recorded versions go. Empty values disable a sink.
type Versions struct {
	Log     string            `yaml:"log"`
	SQLite  string            `yaml:"sqlite"`
	Webhook string            `yaml:"webhook"`
	Headers map[string]string `yaml:"headers"`
}

// Config is the full tripcheck configuration file.
type Config struct {
	Verdict        verdict.Config `yaml:"verdict"`
	NextFix        nextfix.Config `yaml:"nextfix"`
	Planner        planner.Config `yaml:"planner"`
	Replanner      replan.Config  `yaml:"replanner"`
	Versions       Versions       `yaml:"versions"`
	SuggestionsDir string         `yaml:"suggestions_dir"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Verdict:        *verdict.DefaultConfig(),
		NextFix:        *nextfix.DefaultConfig(),
		Planner:        *planner.DefaultConfig(),
		Replanner:      *replan.DefaultConfig(),
		SuggestionsDir: nextfix.DefaultDir(),
	}
}

// DefaultPath returns ~/.tripcheck/config.yaml, or "" when there is no home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tripcheck", "config.yaml")
}

// LoadConfig loads configuration from a YAML file.
// Empty path falls back to ~/.tripcheck/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads configuration and returns the SHA-256 of the raw
// file. When no file exists the hash is that of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return DefaultConfig(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hashBytes(data), nil
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	v := c.Verdict
	if v.PossibleMin > v.GoMin {
		return fmt.Errorf("invalid config: verdict.possible_min (%d) above go_min (%d)", v.PossibleMin, v.GoMin)
	}
	if v.OverBudgetWarn > v.OverBudgetBlock {
		return fmt.Errorf("invalid config: verdict.over_budget_warn (%g) above over_budget_block (%g)", v.OverBudgetWarn, v.OverBudgetBlock)
	}
	if v.SafetyBlockLevel <= 0 {
		return fmt.Errorf("invalid config: verdict.safety_block_level must be positive, got %d", v.SafetyBlockLevel)
	}
	if v.ShortNoticeDays < 0 {
		return fmt.Errorf("invalid config: verdict.short_notice_days must not be negative, got %d", v.ShortNoticeDays)
	}
	if c.NextFix.MaxActivitiesPerDay <= 0 {
		return fmt.Errorf("invalid config: nextfix.max_activities_per_day must be positive, got %d", c.NextFix.MaxActivitiesPerDay)
	}
	if v.NearBudgetTolerance < 0 || c.NextFix.NearBudgetTolerance < 0 {
		return fmt.Errorf("invalid config: near_budget_tolerance must not be negative")
	}
	if c.Planner.UndoWindow < 0 || c.Planner.DeltaWindow < 0 || c.Planner.ConfirmWindow < 0 {
		return fmt.Errorf("invalid config: planner windows must not be negative")
	}
	switch c.Replanner.Mode {
	case replan.ModeLocal:
	case replan.ModeHTTP:
		if c.Replanner.URL == "" {
			return fmt.Errorf("invalid config: replanner.url is required in http mode")
		}
	default:
		return fmt.Errorf("invalid config: unknown replanner.mode %q", c.Replanner.Mode)
	}
	return nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented configuration file with the defaults.
func DefaultConfigYAML() string {
	return `# tripcheck configuration
# Generated by: tripcheck init-config
#
# Verdict evaluation order (cannot be changed):
#   1. Base tier from certainty score
#   2. Budget ratio (only when a budget is set)
#   3. Forcing overrides -> DIFFICULT: visa timing, safety level, over budget 50%
#   4. Downgrade overrides -> at most POSSIBLE: high visa risk, over budget 20%, short-notice visa
#   5. Reasons

verdict:
  go_min: 80                      # score >= go_min -> GO
  possible_min: 50                # score >= possible_min -> POSSIBLE, else DIFFICULT
  over_budget_warn: 1.2           # cost/budget ratio that downgrades to POSSIBLE
  over_budget_block: 1.5          # cost/budget ratio that forces DIFFICULT
  safety_block_level: 3           # safety level that forces DIFFICULT
  short_notice_days: 7            # visa-required trips closer than this downgrade
  unknown_days_until_travel: 365  # used when no travel date can be parsed
  near_budget_tolerance: 0        # fraction below budget still treated as at budget

# Next-fix ranking. Impacts are estimated certainty points gained by each fix.
nextfix:
  impacts:
    visa_timing: 30
    short_notice_visa: 10
    safety: 25
    visa_high_risk: 10
    over_budget_50: 25
    over_budget_20: 10
    trim_itinerary: 5
  new_blocker_bonus: 5            # added when the blocker appeared since the original plan
  max_activities_per_day: 5
  near_budget_tolerance: 0
  budget_headroom: 0.05           # budget fix covers cost plus this fraction
  date_buffer_days: 3             # date fix adds this many days past visa processing

planner:
  undo_window: 60s
  delta_window: 12s
  confirm_window: 1s
  history_limit: 5

# mode: local recomputes plans in-process; http posts to url.
replanner:
  mode: local
  # url: https://planner.example.com/replan
  # headers:
  #   Authorization: Bearer <token>
  timeout: 10s
  max_retries: 3

# Version sinks. Leave empty to disable.
versions:
  log: ""                         # hash-chained JSONL, e.g. ~/.tripcheck/versions.jsonl
  sqlite: ""                      # e.g. ~/.tripcheck/versions.db
  webhook: ""
`
}
