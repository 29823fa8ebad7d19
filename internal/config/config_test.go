package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := LoadConfigWithHash(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Verdict.GoMin != 80 || cfg.Planner.UndoWindow != 60*time.Second {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if hash != hashBytes(nil) {
		t.Errorf("expected empty-input hash, got %s", hash)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	path := writeConfig(t, `
verdict:
  go_min: 85
  near_budget_tolerance: 0.1
planner:
  undo_window: 30s
nextfix:
  impacts:
    visa_timing: 40
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Verdict.GoMin != 85 || cfg.Verdict.PossibleMin != 50 {
		t.Errorf("expected go_min 85 with default possible_min, got %+v", cfg.Verdict)
	}
	if cfg.Verdict.NearBudgetTolerance != 0.1 {
		t.Errorf("expected tolerance 0.1, got %v", cfg.Verdict.NearBudgetTolerance)
	}
	if cfg.Planner.UndoWindow != 30*time.Second || cfg.Planner.DeltaWindow != 12*time.Second {
		t.Errorf("expected undo 30s and default delta, got %+v", cfg.Planner)
	}
	if cfg.NextFix.Impacts.VisaTiming != 40 || cfg.NextFix.Impacts.Safety != 25 {
		t.Errorf("expected merged impacts, got %+v", cfg.NextFix.Impacts)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "verdict: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, "verdict:\n  possible_min: 90\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "possible_min") {
		t.Errorf("expected possible_min error, got %v", err)
	}
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	tests := []struct {
		yaml string
		want string
	}{
		{"verdict:\n  safety_block_level: 0\n", "safety_block_level"},
		{"verdict:\n  safety_block_level: -2\n", "safety_block_level"},
		{"verdict:\n  short_notice_days: -1\n", "short_notice_days"},
		{"nextfix:\n  max_activities_per_day: -3\n", "max_activities_per_day"},
	}
	for _, tt := range tests {
		_, err := LoadConfig(writeConfig(t, tt.yaml))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: expected %s error, got %v", tt.yaml, tt.want, err)
		}
	}
}

func TestValidateHTTPModeNeedsURL(t *testing.T) {
	path := writeConfig(t, "replanner:\n  mode: http\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected url error")
	}
	path = writeConfig(t, "replanner:\n  mode: carrier-pigeon\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected unknown mode error")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	_, h1, err := LoadConfigWithHash(writeConfig(t, "verdict:\n  go_min: 81\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadConfigWithHash(writeConfig(t, "verdict:\n  go_min: 82\n"))
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 || !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("expected distinct sha256 hashes, got %s and %s", h1, h2)
	}
}

func TestDefaultConfigYAMLMatchesDefaults(t *testing.T) {
	got := DefaultConfig()
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), got); err != nil {
		t.Fatalf("default YAML does not parse: %v", err)
	}
	want := DefaultConfig()
	if got.Verdict != want.Verdict {
		t.Errorf("verdict section drifted: %+v vs %+v", got.Verdict, want.Verdict)
	}
	if got.NextFix != want.NextFix {
		t.Errorf("nextfix section drifted: %+v vs %+v", got.NextFix, want.NextFix)
	}
	if got.Planner != want.Planner {
		t.Errorf("planner section drifted: %+v vs %+v", got.Planner, want.Planner)
	}
	if got.Replanner.Mode != want.Replanner.Mode || got.Replanner.Timeout != want.Replanner.Timeout {
		t.Errorf("replanner section drifted: %+v", got.Replanner)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default YAML invalid: %v", err)
	}
}
