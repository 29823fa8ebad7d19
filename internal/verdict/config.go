package verdict

// Config holds the tunable thresholds of the verdict engine.
// Zero-valued fields in YAML keep their defaults because loading starts from
// DefaultConfig.
type Config struct {
	GoMin                  int     `yaml:"go_min" json:"go_min"`
	PossibleMin            int     `yaml:"possible_min" json:"possible_min"`
	OverBudgetWarn         float64 `yaml:"over_budget_warn" json:"over_budget_warn"`
	OverBudgetBlock        float64 `yaml:"over_budget_block" json:"over_budget_block"`
	SafetyBlockLevel       int     `yaml:"safety_block_level" json:"safety_block_level"`
	ShortNoticeDays        int     `yaml:"short_notice_days" json:"short_notice_days"`
	UnknownDaysUntilTravel int     `yaml:"unknown_days_until_travel" json:"unknown_days_until_travel"`

	// NearBudgetTolerance is the fraction below budget still treated as
	// "at budget" by callers that want a margin (0.10 = within 10%).
	NearBudgetTolerance float64 `yaml:"near_budget_tolerance" json:"near_budget_tolerance"`
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() *Config {
	return &Config{
		GoMin:                  80,
		PossibleMin:            50,
		OverBudgetWarn:         1.2,
		OverBudgetBlock:        1.5,
		SafetyBlockLevel:       3,
		ShortNoticeDays:        7,
		UnknownDaysUntilTravel: 365,
		NearBudgetTolerance:    0,
	}
}

// NearBudget reports whether ratio sits in [1-tolerance, warn threshold).
func (c *Config) NearBudget(ratio float64) bool {
	return ratio >= 1-c.NearBudgetTolerance && ratio < c.OverBudgetWarn
}
