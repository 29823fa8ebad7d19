package nextfix

import (
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/tripcheck/internal/clock"
)

func newTestStore(t *testing.T) (*Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	s, err := NewStore(t.TempDir(), clk)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, clk
}

func TestStoreUnknownKeyVisible(t *testing.T) {
	s, _ := newTestStore(t)
	ok, err := s.Visible(NewKey("t1", "c1", FixAdjustDates))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected unknown key to be visible")
	}
}

func TestStoreDismissHides(t *testing.T) {
	s, _ := newTestStore(t)
	k := NewKey("t1", "c1", FixAdjustDates)
	if err := s.Show(k); err != nil {
		t.Fatal(err)
	}
	if err := s.Dismiss(k); err != nil {
		t.Fatal(err)
	}
	ok, _ := s.Visible(k)
	if ok {
		t.Error("expected dismissed key to be hidden")
	}
}

func TestStoreSnoozeExpires(t *testing.T) {
	s, clk := newTestStore(t)
	k := NewKey("t1", "c1", FixAdjustBudget)
	if err := s.Snooze(k, time.Hour); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Visible(k); ok {
		t.Error("expected snoozed key to be hidden")
	}
	clk.Advance(time.Hour)
	if ok, _ := s.Visible(k); !ok {
		t.Error("expected key visible after snooze elapsed")
	}
}

func TestStoreInvalidateDropsOldChange(t *testing.T) {
	s, _ := newTestStore(t)
	old := NewKey("t1", "c1", FixAdjustDates)
	if err := s.Dismiss(old); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate("t1", "c2"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Entries("t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries after invalidation, got %d", len(entries))
	}

	if ok, _ := s.Visible(old); ok {
		t.Error("expected superseded key to be hidden")
	}
	if err := s.Dismiss(old); !errors.Is(err, ErrStaleKey) {
		t.Errorf("expected ErrStaleKey, got %v", err)
	}

	fresh := NewKey("t1", "c2", FixAdjustDates)
	if ok, _ := s.Visible(fresh); !ok {
		t.Error("expected same suggestion under new change to be visible")
	}
}

func TestStoreInvalidateSameChangeKeepsEntries(t *testing.T) {
	s, _ := newTestStore(t)
	k := NewKey("t1", "c1", FixAdjustDates)
	if err := s.MarkApplied(k); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate("t1", "c1"); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.Entries("t1")
	if len(entries) != 1 || entries[0].Status != StatusApplied {
		t.Errorf("expected applied entry kept, got %+v", entries)
	}
}

func TestStoreShowIdempotent(t *testing.T) {
	s, clk := newTestStore(t)
	k := NewKey("t1", "c1", FixReviewSafety)
	if err := s.Show(k); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Entries("t1")
	clk.Advance(time.Minute)
	if err := s.Show(k); err != nil {
		t.Fatal(err)
	}
	second, _ := s.Entries("t1")
	if !first[0].UpdatedAt.Equal(second[0].UpdatedAt) {
		t.Error("expected repeated Show to leave entry untouched")
	}
}

func TestStoreRejectsPathTraversal(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"", "../etc", "a/b", "trip one"} {
		if err := s.Show(NewKey(id, "c1", FixAdjustDates)); err == nil {
			t.Errorf("expected error for trip id %q", id)
		}
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewFake(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	s1, _ := NewStore(dir, clk)
	k := NewKey("t1", "c1", FixAdjustDates)
	if err := s1.Dismiss(k); err != nil {
		t.Fatal(err)
	}

	s2, _ := NewStore(dir, clk)
	if ok, _ := s2.Visible(k); ok {
		t.Error("expected dismissal to persist")
	}
}
