package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/event"
	"github.com/kalendo/kalendo/pkg/recurrence"
)

// Service implements Calendar over an in-memory EventStore.
type Service struct {
	name  string
	loc   *time.Location
	store *EventStore
	ids   utils.IDGenerator
}

func NewService(name string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		name:  name,
		loc:   loc,
		store: NewEventStore(),
		ids:   utils.UUIDGenerator{},
	}
}

// WithIDGenerator replaces the series id source used for splits, mainly for
// tests.
func (s *Service) WithIDGenerator(ids utils.IDGenerator) *Service {
	s.ids = ids
	return s
}

func (s *Service) Name() string {
	return s.name
}

// Rename is used by the registry when a calendar is renamed.
func (s *Service) Rename(name string) {
	s.name = name
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// SetLocation is used by the registry when a calendar's timezone is edited.
// Stored events keep their absolute instants; the zone only affects how
// dates are interpreted from here on.
func (s *Service) SetLocation(loc *time.Location) {
	s.loc = loc
}

func (s *Service) CreateEvent(ctx context.Context, e event.Event) error {
	if err := s.store.Insert(e); err != nil {
		return err
	}
	log.Debugf("calendar %q: created event %q at %s", s.name, e.Subject, e.Start.Format(time.RFC3339))
	return nil
}

// CreateSeries generates the seed's series and inserts the whole batch
// atomically: if any generated event collides with a stored one, nothing is
// inserted.
func (s *Service) CreateSeries(ctx context.Context, seed event.Event, rule *recurrence.Rule) ([]event.Event, error) {
	series, err := rule.Generate(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate series for %q: %w", seed.Subject, err)
	}
	if err := s.store.InsertBatch(series); err != nil {
		return nil, fmt.Errorf("failed to create series for %q: %w", seed.Subject, err)
	}
	log.Debugf("calendar %q: created series of %d events for %q", s.name, len(series), seed.Subject)
	return series, nil
}

func (s *Service) FindEvent(ctx context.Context, key event.Key) (event.Event, error) {
	return s.store.Find(key)
}

// EditEvent resolves exactly one stored event and replaces it with a copy
// carrying the new property value.
func (s *Service) EditEvent(ctx context.Context, key event.Key, property string, value any) (event.Event, error) {
	edited, err := s.EditSeries(ctx, key, property, value, EditSingle)
	if err != nil {
		return event.Event{}, err
	}
	return edited[0], nil
}

// EditSeries resolves the anchor event from the key and applies the edit at
// the requested scope. A standalone anchor degrades every mode to a single
// edit. A time edit takes the requested value on the anchor and moves every
// other affected event by the same offset, so each occurrence keeps its own
// date. A time-affecting edit from the anchor onward splits the modified
// subset onto a fresh series id, so later series-scoped edits against the
// original id no longer reach it. The whole edit is all-or-nothing: if any
// replacement would violate an event invariant or the duplicate invariant,
// no event changes.
func (s *Service) EditSeries(ctx context.Context, key event.Key, property string, value any, mode EditMode) ([]event.Event, error) {
	switch mode {
	case EditSingle, EditFromThisOnward, EditEntireSeries:
	default:
		return nil, fmt.Errorf("unknown edit mode %d: %w", mode, event.ErrInvalidArgument)
	}

	anchor, err := s.FindEvent(ctx, key)
	if err != nil {
		return nil, err
	}

	if anchor.SeriesID == "" && mode != EditSingle {
		log.Debugf("calendar %q: %q is standalone, degrading %s edit to single", s.name, anchor.Subject, mode)
		mode = EditSingle
	}

	var affected []event.Event
	switch mode {
	case EditSingle:
		affected = []event.Event{anchor}
	case EditFromThisOnward:
		for _, e := range s.store.BySeries(anchor.SeriesID) {
			if !e.Start.Before(anchor.Start) {
				affected = append(affected, e)
			}
		}
	case EditEntireSeries:
		affected = s.store.BySeries(anchor.SeriesID)
	}

	valueFor := func(e event.Event) any { return value }
	if event.IsTimeProperty(property) {
		v, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%s requires a time value, got %T: %w", property, value, event.ErrInvalidArgument)
		}
		if strings.EqualFold(property, event.PropEnd) {
			delta := v.Sub(anchor.End)
			valueFor = func(e event.Event) any { return e.End.Add(delta) }
		} else {
			delta := v.Sub(anchor.Start)
			valueFor = func(e event.Event) any { return e.Start.Add(delta) }
		}
	}

	split := mode == EditFromThisOnward && event.IsTimeProperty(property)
	splitID := ""
	if split {
		splitID = s.ids.NewID()
	}

	replacements := make([]Replacement, 0, len(affected))
	edited := make([]event.Event, 0, len(affected))
	for _, e := range affected {
		next, err := e.CopyWith(property, valueFor(e))
		if err != nil {
			return nil, fmt.Errorf("failed to edit %q at %s: %w", e.Subject, e.Start.Format(time.RFC3339), err)
		}
		if split {
			next = next.WithSeriesID(splitID)
		}
		replacements = append(replacements, Replacement{Old: e, New: next})
		edited = append(edited, next)
	}

	if err := s.store.ReplaceAll(replacements); err != nil {
		return nil, err
	}
	if split {
		log.Debugf("calendar %q: series %s split at %s, %d events moved to series %s",
			s.name, anchor.SeriesID, anchor.Start.Format(time.RFC3339), len(edited), splitID)
	}
	return edited, nil
}

// EventsOn returns events whose [start, end) interval intersects the given
// calendar day, interpreted in this calendar's timezone.
func (s *Service) EventsOn(ctx context.Context, date time.Time) []event.Event {
	y, m, d := date.In(s.loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return s.store.Overlapping(dayStart, dayStart.AddDate(0, 0, 1))
}

// EventsBetween returns events overlapping the [from, to) range.
func (s *Service) EventsBetween(ctx context.Context, from, to time.Time) []event.Event {
	return s.store.Overlapping(from, to)
}

// IsBusy reports whether any event's interval, inclusive of both ends,
// contains the instant.
func (s *Service) IsBusy(ctx context.Context, at time.Time) bool {
	return s.store.ContainsInstant(at)
}

// Events returns a complete, stable snapshot of the calendar's events.
func (s *Service) Events(ctx context.Context) []event.Event {
	return s.store.All()
}
