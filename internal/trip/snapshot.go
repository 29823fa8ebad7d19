package trip

// Status is the lifecycle state of a trip's computed results.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Input holds the trip parameters the user edits.
type Input struct {
	Destination string   `json:"destination" yaml:"destination"`
	Origin      string   `json:"origin,omitempty" yaml:"origin"`
	Dates       string   `json:"dates,omitempty" yaml:"dates"`
	StartDate   string   `json:"startDate,omitempty" yaml:"start_date"` // YYYY-MM-DD, wins over Dates
	Budget      float64  `json:"budget" yaml:"budget"`
	Travelers   int      `json:"travelers,omitempty" yaml:"travelers"`
	Interests   []string `json:"interests,omitempty" yaml:"interests"`
}

// ItineraryDay is one day of a generated itinerary.
type ItineraryDay struct {
	Day        int      `json:"day"`
	Title      string   `json:"title"`
	Activities []string `json:"activities"`
}

// Snapshot is the full computed state of a trip at one point in time.
type Snapshot struct {
	TripID    string         `json:"tripId"`
	Status    Status         `json:"status"`
	ChangeID  string         `json:"changeId,omitempty"`
	Input     Input          `json:"input"`
	Signals   VerdictInput   `json:"signals"`
	Result    VerdictResult  `json:"result"`
	Blockers  []Blocker      `json:"blockers"`
	Itinerary []ItineraryDay `json:"itinerary,omitempty"`
}

// Certainty returns the snapshot's certainty score.
func (s *Snapshot) Certainty() int {
	return s.Result.Score
}
