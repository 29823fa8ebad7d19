package tripdiff

import (
	"sync"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// Baselines captures each trip's original snapshot exactly once and compares
// later snapshots against it, so deltas are cumulative across changes.
type Baselines struct {
	mu        sync.Mutex
	originals map[string]trip.Snapshot
}

// NewBaselines creates an empty baseline registry.
func NewBaselines() *Baselines {
	return &Baselines{originals: make(map[string]trip.Snapshot)}
}

// Capture records s as the trip's original if none exists yet and the trip
// has left the generating state. Returns true when s became the baseline.
func (b *Baselines) Capture(s trip.Snapshot) bool {
	if s.Status == trip.StatusGenerating || s.TripID == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.originals[s.TripID]; exists {
		return false
	}
	b.originals[s.TripID] = cloneSnapshot(s)
	return true
}

// Original returns the captured baseline for a trip.
func (b *Baselines) Original(tripID string) (trip.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.originals[tripID]
	return s, ok
}

// Compare captures updated if no baseline exists, then diffs against the
// baseline. Returns false while the trip is still generating.
func (b *Baselines) Compare(updated trip.Snapshot) (*Comparison, bool) {
	b.Capture(updated)
	original, ok := b.Original(updated.TripID)
	if !ok {
		return nil, false
	}
	return Compare(&original, &updated), true
}

// Reset forgets a trip's baseline, ending its lifecycle.
func (b *Baselines) Reset(tripID string) {
	b.mu.Lock()
	delete(b.originals, tripID)
	b.mu.Unlock()
}

// cloneSnapshot copies the slices a caller might keep mutating.
func cloneSnapshot(s trip.Snapshot) trip.Snapshot {
	s.Blockers = append([]trip.Blocker(nil), s.Blockers...)
	s.Result.OverridesApplied = append([]trip.Override(nil), s.Result.OverridesApplied...)
	s.Result.Reasons = append([]string(nil), s.Result.Reasons...)
	s.Input.Interests = append([]string(nil), s.Input.Interests...)
	days := make([]trip.ItineraryDay, len(s.Itinerary))
	for i, d := range s.Itinerary {
		d.Activities = append([]string(nil), d.Activities...)
		days[i] = d
	}
	s.Itinerary = days
	return s
}
