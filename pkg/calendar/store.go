package calendar

import (
	"fmt"
	"time"

	"github.com/kalendo/kalendo/pkg/event"
)

// EventStore is the in-memory event collection behind one calendar. It
// enforces the no-duplicate invariant on the (subject, start, end) triple;
// subjects compare case-insensitively. It is not safe for concurrent use;
// callers serialize access.
type EventStore struct {
	events []event.Event
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) duplicateOf(e event.Event) bool {
	for _, stored := range s.events {
		if stored.SameIdentity(e) {
			return true
		}
	}
	return false
}

// Insert adds a single event, failing on an identity collision.
func (s *EventStore) Insert(e event.Event) error {
	if s.duplicateOf(e) {
		return fmt.Errorf("event %q from %s to %s already exists: %w",
			e.Subject, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), ErrDuplicateEvent)
	}
	s.events = append(s.events, e)
	return nil
}

// InsertBatch validates the whole batch, against stored events and within
// itself, before writing anything. On any collision the store is left
// completely unchanged.
func (s *EventStore) InsertBatch(batch []event.Event) error {
	for i, e := range batch {
		if s.duplicateOf(e) {
			return fmt.Errorf("event %q from %s to %s already exists: %w",
				e.Subject, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), ErrDuplicateEvent)
		}
		for _, earlier := range batch[:i] {
			if earlier.SameIdentity(e) {
				return fmt.Errorf("batch contains %q from %s to %s twice: %w",
					e.Subject, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), ErrDuplicateEvent)
			}
		}
	}
	s.events = append(s.events, batch...)
	return nil
}

// Replacement pairs a stored event with its edited successor.
type Replacement struct {
	Old event.Event
	New event.Event
}

// ReplaceAll applies a set of whole-record replacements atomically. Every
// Old is resolved against the pre-edit collection, so a New identity equal
// to another replacement's Old identity cannot capture its slot. The
// resulting collection is validated as a whole first; if any replacement
// cannot be located or the result would contain a duplicate triple, nothing
// changes.
func (s *EventStore) ReplaceAll(replacements []Replacement) error {
	next := make([]event.Event, len(s.events))
	copy(next, s.events)

	used := make(map[int]bool, len(replacements))
	for _, r := range replacements {
		idx := -1
		for i, stored := range s.events {
			if !used[i] && stored.SameIdentity(r.Old) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("event %q at %s not in store: %w",
				r.Old.Subject, r.Old.Start.Format(time.RFC3339), ErrEventNotFound)
		}
		used[idx] = true
		next[idx] = r.New
	}

	for i, a := range next {
		for _, b := range next[i+1:] {
			if a.SameIdentity(b) {
				return fmt.Errorf("edit would produce duplicate %q from %s to %s: %w",
					a.Subject, a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339), ErrDuplicateEvent)
			}
		}
	}

	s.events = next
	return nil
}

// Find resolves the single stored event the key matches. A wildcard-end key
// matching more than one event is ambiguous and fails, so resolution never
// depends on insertion order.
func (s *EventStore) Find(key event.Key) (event.Event, error) {
	found := -1
	for i, stored := range s.events {
		if key.Matches(stored) {
			if found >= 0 {
				return event.Event{}, fmt.Errorf("key %s matches more than one event: %w", key, event.ErrInvalidArgument)
			}
			found = i
		}
	}
	if found < 0 {
		return event.Event{}, fmt.Errorf("no event matching %s: %w", key, ErrEventNotFound)
	}
	return s.events[found], nil
}

// BySeries returns every event carrying the given series id.
func (s *EventStore) BySeries(id string) []event.Event {
	if id == "" {
		return nil
	}
	var out []event.Event
	for _, stored := range s.events {
		if stored.SeriesID == id {
			out = append(out, stored)
		}
	}
	return out
}

// Overlapping returns events whose [start, end) interval intersects
// [from, to).
func (s *EventStore) Overlapping(from, to time.Time) []event.Event {
	out := make([]event.Event, 0)
	for _, stored := range s.events {
		if stored.Start.Before(to) && stored.End.After(from) {
			out = append(out, stored)
		}
	}
	return out
}

// ContainsInstant reports whether any event's [start, end] interval,
// inclusive of both ends, contains the instant.
func (s *EventStore) ContainsInstant(at time.Time) bool {
	for _, stored := range s.events {
		if !at.Before(stored.Start) && !at.After(stored.End) {
			return true
		}
	}
	return false
}

// All returns a snapshot copy of the collection.
func (s *EventStore) All() []event.Event {
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	return len(s.events)
}
