// Package calendar owns one calendar's event set: creation with duplicate
// detection, atomic series insertion, scope-resolved bulk edits with series
// splitting, and overlap queries.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/kalendo/kalendo/pkg/event"
	"github.com/kalendo/kalendo/pkg/recurrence"
)

var (
	// ErrDuplicateEvent marks an insert that would violate the
	// (subject, start, end) uniqueness invariant.
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrEventNotFound marks an edit or lookup against a key no stored
	// event matches.
	ErrEventNotFound = errors.New("event not found")
)

// EditMode selects which events a bulk edit touches.
type EditMode int

const (
	// EditSingle edits only the anchor event.
	EditSingle EditMode = iota
	// EditFromThisOnward edits every event in the anchor's series whose
	// start is at or after the anchor's start.
	EditFromThisOnward
	// EditEntireSeries edits every event sharing the anchor's series id.
	EditEntireSeries
)

func (m EditMode) String() string {
	switch m {
	case EditSingle:
		return "single"
	case EditFromThisOnward:
		return "fromThisOnward"
	case EditEntireSeries:
		return "entireSeries"
	default:
		return "unknown"
	}
}

// Calendar is the contract one calendar exposes to callers: the command
// layer, the copier, and the exporters. Mutations fail synchronously and
// leave storage unchanged; queries never fail.
type Calendar interface {
	Name() string
	Location() *time.Location

	CreateEvent(ctx context.Context, e event.Event) error
	CreateSeries(ctx context.Context, seed event.Event, rule *recurrence.Rule) ([]event.Event, error)
	EditEvent(ctx context.Context, key event.Key, property string, value any) (event.Event, error)
	EditSeries(ctx context.Context, key event.Key, property string, value any, mode EditMode) ([]event.Event, error)

	FindEvent(ctx context.Context, key event.Key) (event.Event, error)
	EventsOn(ctx context.Context, date time.Time) []event.Event
	EventsBetween(ctx context.Context, from, to time.Time) []event.Event
	IsBusy(ctx context.Context, at time.Time) bool
	Events(ctx context.Context) []event.Event
}
