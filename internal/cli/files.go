package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tripcheck/internal/config"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/versions"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// readReport decodes a feasibility report. Any JSON object is accepted;
// missing fields resolve to defaults downstream.
func readReport(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report map[string]any
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return report, nil
}

// readInput decodes trip parameters from YAML (JSON is valid YAML).
func readInput(path string) (trip.Input, error) {
	var in trip.Input
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read trip input: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse trip input %s: %w", path, err)
	}
	return in, nil
}

func readSnapshot(path string) (*trip.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s trip.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &s, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return &t, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// openSinks builds the configured version sinks. The returned close func is
// always safe to call.
func openSinks(cfg config.Versions) (versions.Sink, func() error, error) {
	var sinks versions.Multi
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.Log != "" {
		l, err := versions.OpenLog(cfg.Log)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, l)
		closers = append(closers, l.Close)
	}
	if cfg.SQLite != "" {
		db, err := versions.OpenSQLite(cfg.SQLite)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, db)
		closers = append(closers, db.Close)
	}
	if cfg.Webhook != "" {
		sinks = append(sinks, versions.NewWebhook(cfg.Webhook, cfg.Headers))
	}

	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return sinks, closeAll, nil
}
