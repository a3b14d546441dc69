package event

import (
	"strings"
	"time"
)

// Key locates an event, or the anchor of a series, within a calendar.
// Subject matches case-insensitively and Start exactly. A nil End is a
// wildcard: it matches by subject and start regardless of the stored end,
// which is how a series anchor is resolved without knowing its end time.
type Key struct {
	Subject string
	Start   time.Time
	End     *time.Time
}

// NewKey builds an exact key matching subject, start, and end.
func NewKey(subject string, start, end time.Time) Key {
	return Key{Subject: subject, Start: start, End: &end}
}

// NewAnchorKey builds a wildcard-end key matching by subject and start only.
func NewAnchorKey(subject string, start time.Time) Key {
	return Key{Subject: subject, Start: start}
}

// Matches reports whether the key resolves to the given event.
func (k Key) Matches(e Event) bool {
	if !strings.EqualFold(k.Subject, e.Subject) {
		return false
	}
	if !k.Start.Equal(e.Start) {
		return false
	}
	if k.End != nil && !k.End.Equal(e.End) {
		return false
	}
	return true
}

func (k Key) String() string {
	if k.End != nil {
		return k.Subject + " " + k.Start.Format(time.RFC3339) + " - " + k.End.Format(time.RFC3339)
	}
	return k.Subject + " " + k.Start.Format(time.RFC3339)
}
