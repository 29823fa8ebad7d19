package nextfix

import (
	"fmt"
	"strings"
)

// Key identifies one suggestion shown for one accepted plan of one trip.
// Any state keyed by it is stale once the trip's change id moves on.
type Key struct {
	TripID       string `json:"tripId"`
	ChangeID     string `json:"changeId"`
	SuggestionID string `json:"suggestionId"`
}

// NewKey builds a composite suggestion key.
func NewKey(tripID, changeID, suggestionID string) Key {
	return Key{TripID: tripID, ChangeID: changeID, SuggestionID: suggestionID}
}

// String renders the key as trip/change/suggestion.
func (k Key) String() string {
	return k.TripID + "/" + k.ChangeID + "/" + k.SuggestionID
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Key{}, fmt.Errorf("invalid suggestion key %q: want trip/change/suggestion", s)
	}
	return NewKey(parts[0], parts[1], parts[2]), nil
}
