package versions

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// Version is one recorded state of a trip, created after every applied or
// undone plan.
type Version struct {
	ID        string            `json:"id"`
	TripID    string            `json:"trip_id"`
	Source    string            `json:"source"`
	ChangeID  string            `json:"change_id"`
	Snapshot  *trip.Snapshot    `json:"snapshot,omitempty"`
	Summary   trip.DeltaSummary `json:"summary"`
	CreatedAt time.Time         `json:"created_at"`
	PrevHash  string            `json:"prev_hash,omitempty"`
}

// Sink accepts versions. Callers treat it as fire-and-forget.
type Sink interface {
	CreateVersion(ctx context.Context, v Version) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, v Version) error

// CreateVersion calls f.
func (f SinkFunc) CreateVersion(ctx context.Context, v Version) error {
	return f(ctx, v)
}

// Multi fans a version out to every sink and joins their errors.
// A failing sink does not stop the others.
type Multi []Sink

// CreateVersion implements Sink.
func (m Multi) CreateVersion(ctx context.Context, v Version) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.CreateVersion(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
