package trip

// DetectedChange describes one input field the replanner saw change.
type DetectedChange struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// ChangePlannerResponse is the replanner's answer to a (prev, next) input pair.
// DeltaSummary is kept as decoded so malformed upstream shapes survive decoding;
// read it through Summary.
type ChangePlannerResponse struct {
	ChangeID        string           `json:"changeId"`
	DetectedChanges []DetectedChange `json:"detectedChanges"`
	DeltaSummary    map[string]any   `json:"deltaSummary"`
	UIInstructions  map[string]any   `json:"uiInstructions,omitempty"`
	Failures        []string         `json:"failures,omitempty"`
}

// CertaintyDelta is the normalized certainty section of a delta summary.
type CertaintyDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// BlockersDelta is the normalized blockers section of a delta summary.
type BlockersDelta struct {
	Before   int      `json:"before"`
	After    int      `json:"after"`
	Resolved []string `json:"resolved"`
	New      []string `json:"new"`
}

// BudgetDelta is the normalized budget section of a delta summary.
type BudgetDelta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

// DeltaSummary is the typed, defaulted view of ChangePlannerResponse.DeltaSummary.
type DeltaSummary struct {
	Certainty CertaintyDelta `json:"certainty"`
	Blockers  BlockersDelta  `json:"blockers"`
	Budget    BudgetDelta    `json:"budget"`
}

// Summary normalizes the raw delta summary. Missing sections default to zero.
func (r *ChangePlannerResponse) Summary() DeltaSummary {
	var s DeltaSummary
	if r == nil {
		s.Blockers.Resolved = []string{}
		s.Blockers.New = []string{}
		return s
	}

	c := Object(r.DeltaSummary, "certainty")
	s.Certainty.Before = SafeInt(mapValue(c, "before"))
	s.Certainty.After = SafeInt(mapValue(c, "after"))

	b := Object(r.DeltaSummary, "blockers")
	s.Blockers.Before = SafeInt(mapValue(b, "before"))
	s.Blockers.After = SafeInt(mapValue(b, "after"))
	s.Blockers.Resolved = UniqueIDs(mapValue(b, "resolved"))
	s.Blockers.New = UniqueIDs(mapValue(b, "new"))

	// budget may be a bare number (the delta) or an object.
	switch budget := mapValue(r.DeltaSummary, "budget").(type) {
	case map[string]any:
		s.Budget.Before = SafeNumber(budget["before"])
		s.Budget.After = SafeNumber(budget["after"])
		if IsNumber(budget["delta"]) {
			s.Budget.Delta = SafeNumber(budget["delta"])
		} else {
			s.Budget.Delta = s.Budget.After - s.Budget.Before
		}
	default:
		s.Budget.Delta = SafeNumber(budget)
	}

	return s
}

func mapValue(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}
