package debounce

import "time"

// Window remembers the last accepted event key and when it was accepted.
// It is a value type so it can live inside reducer state.
type Window struct {
	Key string    `json:"key,omitempty"`
	At  time.Time `json:"at,omitempty"`
}

// Accept reports whether an event with key should be accepted at now, given
// a dedup span d. A repeat of the last accepted key inside the span is
// rejected; anything else is accepted and becomes the new last event.
// A rejected repeat does not extend the span.
func (w Window) Accept(key string, now time.Time, d time.Duration) (Window, bool) {
	if w.Key == key && !w.At.IsZero() && now.Sub(w.At) < d {
		return w, false
	}
	return Window{Key: key, At: now}, true
}

// Active reports whether the last accepted event is still inside span d.
func (w Window) Active(now time.Time, d time.Duration) bool {
	return !w.At.IsZero() && now.Sub(w.At) < d
}
