package debounce

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestAcceptFirstEvent(t *testing.T) {
	var w Window
	w, ok := w.Accept("trip-1:chg-1", t0, time.Second)
	if !ok {
		t.Fatal("expected first event accepted")
	}
	if w.Key != "trip-1:chg-1" || !w.At.Equal(t0) {
		t.Errorf("unexpected window %+v", w)
	}
}

func TestRejectRepeatInsideSpan(t *testing.T) {
	w, _ := Window{}.Accept("k", t0, time.Second)
	next, ok := w.Accept("k", t0.Add(500*time.Millisecond), time.Second)
	if ok {
		t.Fatal("expected repeat rejected")
	}
	if !next.At.Equal(t0) {
		t.Error("expected rejected repeat not to extend the span")
	}
}

func TestAcceptRepeatAfterSpan(t *testing.T) {
	w, _ := Window{}.Accept("k", t0, time.Second)
	if _, ok := w.Accept("k", t0.Add(time.Second), time.Second); !ok {
		t.Error("expected repeat accepted once span elapsed")
	}
}

func TestAcceptDifferentKey(t *testing.T) {
	w, _ := Window{}.Accept("a", t0, time.Minute)
	if _, ok := w.Accept("b", t0.Add(time.Millisecond), time.Minute); !ok {
		t.Error("expected different key accepted")
	}
}

func TestActive(t *testing.T) {
	w, _ := Window{}.Accept("k", t0, 12*time.Second)
	if !w.Active(t0.Add(11*time.Second), 12*time.Second) {
		t.Error("expected active inside span")
	}
	if w.Active(t0.Add(12*time.Second), 12*time.Second) {
		t.Error("expected inactive at span end")
	}
	if (Window{}).Active(t0, time.Hour) {
		t.Error("expected zero window inactive")
	}
}
