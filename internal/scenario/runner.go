package scenario

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/config"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

// noFix is the next_fix value asserting that no suggestion is produced.
const noFix = "none"

// Run evaluates every case of a scenario. Cases are independent.
func Run(s *Scenario, cfg *config.Config) *RunResult {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
		Cases: []CaseResult{},
	}

	var clk clock.Clock
	if s.Now != "" {
		if now, err := time.Parse("2006-01-02", s.Now); err == nil {
			clk = clock.NewFake(now)
		}
	}
	builder := verdict.NewBuilder(&cfg.Verdict, clk)

	for i, c := range s.Cases {
		cr := runCase(c, builder, cfg)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func runCase(c Case, builder *verdict.Builder, cfg *config.Config) CaseResult {
	cr := CaseResult{
		Name:              c.Name,
		Expected:          strings.ToUpper(strings.TrimSpace(c.Expect)),
		ExpectedOverrides: c.Overrides,
		ExpectedNextFix:   c.NextFix,
	}

	var in trip.VerdictInput
	switch {
	case c.Input != nil:
		in = *c.Input
	case c.Report != nil:
		var explicit *time.Time
		if c.StartDate != "" {
			t, err := time.Parse("2006-01-02", c.StartDate)
			if err != nil {
				cr.Error = fmt.Sprintf("invalid start_date %q", c.StartDate)
				return cr
			}
			explicit = &t
		}
		in = builder.Build(c.Report, c.Budget, c.Dates, explicit)
	default:
		cr.Error = "case needs input or report"
		return cr
	}

	res := verdict.ComputeWith(in, &cfg.Verdict)
	cr.Actual = string(res.Verdict)
	cr.Reasons = res.Reasons
	cr.ActualOverrides = make([]string, 0, len(res.OverridesApplied))
	for _, o := range res.OverridesApplied {
		cr.ActualOverrides = append(cr.ActualOverrides, string(o))
	}

	snap := &trip.Snapshot{Status: trip.StatusReady, Signals: in, Result: res, Blockers: verdict.Blockers(res)}
	cr.ActualNextFix = noFix
	if fix := nextfix.Suggest(nil, snap, &cfg.NextFix); fix != nil {
		cr.ActualNextFix = fix.ID
	}

	cr.Passed = cr.Actual == cr.Expected
	if c.Overrides != nil && !slices.Equal(normalize(c.Overrides), cr.ActualOverrides) {
		cr.Passed = false
	}
	if c.NextFix != "" && c.NextFix != cr.ActualNextFix {
		cr.Passed = false
	}
	return cr
}

func normalize(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.ToUpper(strings.TrimSpace(id))
	}
	return out
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and the configuration, then runs.
func LoadAndRun(path, configPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	result := Run(s, cfg)
	result.File = path
	return result, nil
}
