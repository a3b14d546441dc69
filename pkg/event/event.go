package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidArgument marks validation failures: blank subjects, inverted
// intervals, unknown properties, malformed values.
var ErrInvalidArgument = errors.New("invalid argument")

// Status controls the visibility of an event.
type Status int

const (
	StatusPublic Status = iota
	StatusPrivate
)

func (s Status) String() string {
	switch s {
	case StatusPrivate:
		return "private"
	default:
		return "public"
	}
}

// ParseStatus accepts "public" or "private", case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return StatusPublic, nil
	case "private":
		return StatusPrivate, nil
	default:
		return StatusPublic, fmt.Errorf("unknown status %q: %w", s, ErrInvalidArgument)
	}
}

// All-day events span a fixed working-day window on their date.
const (
	allDayStartHour = 8
	allDayEndHour   = 17
)

// Event is an immutable calendar entry. Its identity within a calendar is the
// (subject, start, end) triple; subjects compare case-insensitively.
// Construct events through Builder and derive modified copies through
// CopyWith, so the validation in Build can never be bypassed.
type Event struct {
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Status      Status
	AllDay      bool
	SeriesID    string
}

// SameIdentity reports whether two events share the identity triple.
func (e Event) SameIdentity(other Event) bool {
	return strings.EqualFold(e.Subject, other.Subject) &&
		e.Start.Equal(other.Start) &&
		e.End.Equal(other.End)
}

// Duration returns the span between start and end.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// WithSeriesID returns a copy of the event assigned to the given series.
// Series membership carries no validation of its own.
func (e Event) WithSeriesID(id string) Event {
	e.SeriesID = id
	return e
}

// CopyWith returns a new Event with exactly one property replaced, re-running
// full validation. Property names are the closed set: subject, start, end,
// description, location, status. Time properties expect a time.Time value,
// status expects a Status or its string form, everything else a string.
func (e Event) CopyWith(property string, value any) (Event, error) {
	next := e
	switch strings.ToLower(property) {
	case PropSubject:
		s, ok := value.(string)
		if !ok {
			return Event{}, fmt.Errorf("subject requires a string value, got %T: %w", value, ErrInvalidArgument)
		}
		next.Subject = s
	case PropStart:
		t, ok := value.(time.Time)
		if !ok {
			return Event{}, fmt.Errorf("start requires a time value, got %T: %w", value, ErrInvalidArgument)
		}
		next.Start = t
	case PropEnd:
		t, ok := value.(time.Time)
		if !ok {
			return Event{}, fmt.Errorf("end requires a time value, got %T: %w", value, ErrInvalidArgument)
		}
		next.End = t
	case PropDescription:
		s, ok := value.(string)
		if !ok {
			return Event{}, fmt.Errorf("description requires a string value, got %T: %w", value, ErrInvalidArgument)
		}
		next.Description = s
	case PropLocation:
		s, ok := value.(string)
		if !ok {
			return Event{}, fmt.Errorf("location requires a string value, got %T: %w", value, ErrInvalidArgument)
		}
		next.Location = s
	case PropStatus:
		switch v := value.(type) {
		case Status:
			next.Status = v
		case string:
			status, err := ParseStatus(v)
			if err != nil {
				return Event{}, err
			}
			next.Status = status
		default:
			return Event{}, fmt.Errorf("status requires a status value, got %T: %w", value, ErrInvalidArgument)
		}
	default:
		return Event{}, fmt.Errorf("unknown property %q: %w", property, ErrInvalidArgument)
	}

	// An edited time span leaves the all-day window; the copy is a regular
	// timed event from here on.
	if next.AllDay && IsTimeProperty(property) {
		next.AllDay = false
	}

	return validate(next)
}

func validate(e Event) (Event, error) {
	if strings.TrimSpace(e.Subject) == "" {
		return Event{}, fmt.Errorf("event subject must not be blank: %w", ErrInvalidArgument)
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return Event{}, fmt.Errorf("event start and end are required: %w", ErrInvalidArgument)
	}
	if !e.End.After(e.Start) {
		return Event{}, fmt.Errorf("event end %s must be after start %s: %w",
			e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339), ErrInvalidArgument)
	}
	return e, nil
}

// Builder assembles an Event; Build validates every invariant at once.
type Builder struct {
	e Event
}

func NewBuilder(subject string, start, end time.Time) *Builder {
	return &Builder{e: Event{Subject: subject, Start: start, End: end}}
}

func (b *Builder) Description(d string) *Builder {
	b.e.Description = d
	return b
}

func (b *Builder) Location(l string) *Builder {
	b.e.Location = l
	return b
}

func (b *Builder) Status(s Status) *Builder {
	b.e.Status = s
	return b
}

// AllDay normalizes the event to the 08:00-17:00 window of its start date,
// keeping the start's timezone.
func (b *Builder) AllDay() *Builder {
	b.e.AllDay = true
	return b
}

func (b *Builder) SeriesID(id string) *Builder {
	b.e.SeriesID = id
	return b
}

func (b *Builder) Build() (Event, error) {
	e := b.e
	if e.AllDay && !e.Start.IsZero() {
		y, m, d := e.Start.Date()
		loc := e.Start.Location()
		e.Start = time.Date(y, m, d, allDayStartHour, 0, 0, 0, loc)
		e.End = time.Date(y, m, d, allDayEndHour, 0, 0, 0, loc)
	}
	return validate(e)
}
