package scenario

import "github.com/ppiankov/tripcheck/internal/trip"

// Case is one verdict assertion. Either Input is given directly, or Report
// (with Budget and Dates) is normalized through the input builder first.
type Case struct {
	Name      string             `yaml:"name"`
	Input     *trip.VerdictInput `yaml:"input,omitempty"`
	Report    map[string]any     `yaml:"report,omitempty"`
	Budget    float64            `yaml:"budget,omitempty"`
	Dates     string             `yaml:"dates,omitempty"`
	StartDate string             `yaml:"start_date,omitempty"`
	Expect    string             `yaml:"expect"`
	Overrides []string           `yaml:"overrides,omitempty"`
	NextFix   string             `yaml:"next_fix,omitempty"`
}

// Scenario is a named collection of verdict cases. Now pins "today" for
// date-relative cases (YYYY-MM-DD).
type Scenario struct {
	Name  string `yaml:"name"`
	Now   string `yaml:"now,omitempty"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one case.
type CaseResult struct {
	Index             int      `json:"index"`
	Name              string   `json:"name"`
	Passed            bool     `json:"passed"`
	Expected          string   `json:"expected"`
	Actual            string   `json:"actual"`
	ExpectedOverrides []string `json:"expected_overrides,omitempty"`
	ActualOverrides   []string `json:"actual_overrides"`
	ExpectedNextFix   string   `json:"expected_next_fix,omitempty"`
	ActualNextFix     string   `json:"actual_next_fix,omitempty"`
	Reasons           []string `json:"reasons"`
	Error             string   `json:"error,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
