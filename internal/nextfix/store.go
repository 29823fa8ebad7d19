package nextfix

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/tripcheck/internal/clock"
)

// ErrStaleKey is returned when a key refers to a change id the trip has moved past.
var ErrStaleKey = errors.New("suggestion key refers to a superseded change")

// validTripID matches alphanumeric, dash, underscore, and dot characters only.
var validTripID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func validateTripID(id string) error {
	if id == "" {
		return fmt.Errorf("trip id must not be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("trip id must not contain '..'")
	}
	if !validTripID.MatchString(id) {
		return fmt.Errorf("trip id contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

// Status is the lifecycle state of a shown suggestion.
type Status string

const (
	StatusShown     Status = "shown"
	StatusSnoozed   Status = "snoozed"
	StatusDismissed Status = "dismissed"
	StatusApplied   Status = "applied"
)

// Entry is the recorded state of one suggestion key.
type Entry struct {
	Key          Key        `json:"key"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

// tripFile is the on-disk state for one trip. All entries share ChangeID.
type tripFile struct {
	TripID   string           `json:"trip_id"`
	ChangeID string           `json:"change_id"`
	Entries  map[string]Entry `json:"entries"`
}

// Store keeps suggestion lifecycle state in one JSON file per trip.
type Store struct {
	dir   string
	clock clock.Clock
	mu    sync.Mutex
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create suggestion directory: %w", err)
	}
	return &Store{dir: dir, clock: clock.OrReal(clk)}, nil
}

// DefaultDir returns the default suggestion store directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tripcheck-suggestions")
	}
	return filepath.Join(home, ".tripcheck", "suggestions")
}

// Show records that a suggestion was displayed. No-op if already recorded.
func (s *Store) Show(key Key) error {
	return s.update(key, func(e *Entry, exists bool) bool {
		return !exists
	})
}

// Snooze hides a suggestion until d has elapsed.
func (s *Store) Snooze(key Key, d time.Duration) error {
	return s.update(key, func(e *Entry, _ bool) bool {
		until := s.clock.Now().Add(d)
		e.Status = StatusSnoozed
		e.SnoozedUntil = &until
		return true
	})
}

// Dismiss hides a suggestion for the rest of the change's lifetime.
func (s *Store) Dismiss(key Key) error {
	return s.update(key, func(e *Entry, _ bool) bool {
		e.Status = StatusDismissed
		e.SnoozedUntil = nil
		return true
	})
}

// MarkApplied records that the suggestion was acted on.
func (s *Store) MarkApplied(key Key) error {
	return s.update(key, func(e *Entry, _ bool) bool {
		e.Status = StatusApplied
		e.SnoozedUntil = nil
		return true
	})
}

// Visible reports whether the suggestion may be displayed now. Unknown keys
// are visible; keys for a superseded change are not.
func (s *Store) Visible(key Key) (bool, error) {
	if err := validateTripID(key.TripID); err != nil {
		return false, fmt.Errorf("invalid suggestion key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read(key.TripID)
	if err != nil {
		return false, err
	}
	if f == nil {
		return true, nil
	}
	if f.ChangeID != key.ChangeID {
		return false, nil
	}
	e, ok := f.Entries[key.SuggestionID]
	if !ok {
		return true, nil
	}
	switch e.Status {
	case StatusDismissed, StatusApplied:
		return false, nil
	case StatusSnoozed:
		return e.SnoozedUntil == nil || !s.clock.Now().Before(*e.SnoozedUntil), nil
	default:
		return true, nil
	}
}

// Invalidate moves a trip to a new change id, dropping every entry keyed to
// any other change. No-op when the trip is already on changeID.
func (s *Store) Invalidate(tripID, changeID string) error {
	if err := validateTripID(tripID); err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read(tripID)
	if err != nil {
		return err
	}
	if f != nil && f.ChangeID == changeID {
		return nil
	}
	return s.writeAtomic(&tripFile{TripID: tripID, ChangeID: changeID, Entries: map[string]Entry{}})
}

// Entries returns the recorded entries for a trip's current change.
func (s *Store) Entries(tripID string) ([]Entry, error) {
	if err := validateTripID(tripID); err != nil {
		return nil, fmt.Errorf("invalid trip id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read(tripID)
	if err != nil || f == nil {
		return nil, err
	}
	out := make([]Entry, 0, len(f.Entries))
	for _, e := range f.Entries {
		out = append(out, e)
	}
	return out, nil
}

// update applies fn to the entry for key. fn returns whether to persist.
func (s *Store) update(key Key, fn func(e *Entry, exists bool) bool) error {
	if err := validateTripID(key.TripID); err != nil {
		return fmt.Errorf("invalid suggestion key: %w", err)
	}
	if key.SuggestionID == "" {
		return fmt.Errorf("invalid suggestion key: suggestion id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read(key.TripID)
	if err != nil {
		return err
	}
	if f == nil {
		f = &tripFile{TripID: key.TripID, ChangeID: key.ChangeID, Entries: map[string]Entry{}}
	}
	if f.ChangeID != key.ChangeID {
		return fmt.Errorf("%s: %w", key, ErrStaleKey)
	}

	now := s.clock.Now()
	e, exists := f.Entries[key.SuggestionID]
	if !exists {
		e = Entry{Key: key, Status: StatusShown, CreatedAt: now}
	}
	if !fn(&e, exists) {
		return nil
	}
	e.UpdatedAt = now
	f.Entries[key.SuggestionID] = e
	return s.writeAtomic(f)
}

func (s *Store) path(tripID string) string {
	return filepath.Join(s.dir, tripID+".json")
}

// read returns nil, nil when the trip has no file yet.
func (s *Store) read(tripID string) (*tripFile, error) {
	data, err := os.ReadFile(s.path(tripID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read suggestions for %s: %w", tripID, err)
	}

	var f tripFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse suggestions for %s: %w", tripID, err)
	}
	if f.Entries == nil {
		f.Entries = map[string]Entry{}
	}
	return &f, nil
}

func (s *Store) writeAtomic(f *tripFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	path := s.path(f.TripID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
