// Package recurrence expands a seed event into a weekly series of events
// sharing one freshly minted series id.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/event"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Rule describes a weekly repetition: a non-empty set of weekdays plus
// exactly one termination condition, either a positive occurrence count or an
// inclusive end date.
type Rule struct {
	weekdays    []time.Weekday
	occurrences int
	until       time.Time
	ids         utils.IDGenerator
}

// New validates and builds a Rule. occurrences <= 0 means "not set" and a
// zero until means "not set"; exactly one of the two must be set.
func New(weekdays []time.Weekday, occurrences int, until time.Time) (*Rule, error) {
	if len(weekdays) == 0 {
		return nil, fmt.Errorf("recurrence rule requires at least one weekday: %w", event.ErrInvalidArgument)
	}
	hasCount := occurrences > 0
	hasUntil := !until.IsZero()
	if hasCount == hasUntil {
		return nil, fmt.Errorf("recurrence rule requires exactly one of occurrence count or until date: %w",
			event.ErrInvalidArgument)
	}

	seen := make(map[time.Weekday]bool, len(weekdays))
	days := make([]time.Weekday, 0, len(weekdays))
	for _, wd := range weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, fmt.Errorf("unknown weekday %d: %w", wd, event.ErrInvalidArgument)
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	return &Rule{
		weekdays:    days,
		occurrences: occurrences,
		until:       until,
		ids:         utils.UUIDGenerator{},
	}, nil
}

// WithIDGenerator replaces the series id source, mainly for tests.
func (r *Rule) WithIDGenerator(ids utils.IDGenerator) *Rule {
	r.ids = ids
	return r
}

// Weekdays returns the repetition days in ascending order.
func (r *Rule) Weekdays() []time.Weekday {
	out := make([]time.Weekday, len(r.weekdays))
	copy(out, r.weekdays)
	return out
}

// Generate expands the seed into its series. Every emitted event copies the
// seed's descriptive fields and duration, lands on one of the rule's weekdays
// at the seed's time of day, and carries one shared fresh series id. The
// seed's own day is included only when its weekday matches; the until date is
// inclusive. Generation is pure with respect to storage.
func (r *Rule) Generate(seed event.Event) ([]event.Event, error) {
	byweekday := make([]rrule.Weekday, 0, len(r.weekdays))
	for _, wd := range r.weekdays {
		byweekday = append(byweekday, rruleWeekdays[wd])
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byweekday,
		Dtstart:   seed.Start,
	}
	if r.occurrences > 0 {
		opt.Count = r.occurrences
	} else {
		// The until boundary is a calendar date; stretch it to the last
		// instant of that day in the seed's timezone so the day itself
		// stays included.
		y, m, d := r.until.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, seed.Start.Location())
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence: %w", err)
	}

	seriesID := r.ids.NewID()
	duration := seed.Duration()
	starts := rr.All()
	series := make([]event.Event, 0, len(starts))
	for _, start := range starts {
		builder := event.NewBuilder(seed.Subject, start, start.Add(duration)).
			Description(seed.Description).
			Location(seed.Location).
			Status(seed.Status).
			SeriesID(seriesID)
		if seed.AllDay {
			builder.AllDay()
		}
		e, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("generated occurrence is invalid: %w", err)
		}
		series = append(series, e)
	}

	log.Debugf("generated %d occurrences for %q (series %s)", len(series), seed.Subject, seriesID)
	return series, nil
}
