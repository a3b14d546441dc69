// Package copier copies events from one calendar into another, rebasing
// dates across timezones while preserving wall-clock times of day.
package copier

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/calendar"
	"github.com/kalendo/kalendo/pkg/event"
)

// SkippedEvent records one source event a batch copy left behind and why.
type SkippedEvent struct {
	Event  event.Event
	Reason error
}

// Report is the outcome of a batch copy: what landed in the target and what
// was skipped under per-item fault isolation.
type Report struct {
	Copied  []event.Event
	Skipped []SkippedEvent
}

// Copier reads one source calendar and writes clones into targets. It holds
// no state between calls.
type Copier struct {
	source calendar.Calendar
	ids    utils.IDGenerator
}

func New(source calendar.Calendar) (*Copier, error) {
	if source == nil {
		return nil, fmt.Errorf("copier requires a source calendar: %w", event.ErrInvalidArgument)
	}
	return &Copier{source: source, ids: utils.UUIDGenerator{}}, nil
}

// WithIDGenerator replaces the series id source used when regrouping copied
// series, mainly for tests.
func (c *Copier) WithIDGenerator(ids utils.IDGenerator) *Copier {
	c.ids = ids
	return c
}

// CopyEvent copies the unique source event identified by (name, sourceStart)
// into the target at newStart, preserving duration and descriptive fields.
// The clone is standalone: series identity never survives a single copy. An
// explicit newStart places the clone at an arbitrary time, so an all-day
// source becomes a regular timed event, the same way an explicit time edit
// clears the flag.
func (c *Copier) CopyEvent(ctx context.Context, name string, sourceStart time.Time, target calendar.Calendar, newStart time.Time) (event.Event, error) {
	if target == nil {
		return event.Event{}, fmt.Errorf("copy requires a target calendar: %w", event.ErrInvalidArgument)
	}

	source, err := c.source.FindEvent(ctx, event.NewAnchorKey(name, sourceStart))
	if err != nil {
		return event.Event{}, fmt.Errorf("cannot copy %q at %s: %w", name, sourceStart.Format(time.RFC3339), err)
	}

	clone, err := cloneAt(source, newStart, newStart.Add(source.Duration()), "", false)
	if err != nil {
		return event.Event{}, err
	}
	if err := target.CreateEvent(ctx, clone); err != nil {
		return event.Event{}, fmt.Errorf("failed to copy %q into calendar %q: %w", name, target.Name(), err)
	}
	return clone, nil
}

// CopyEventsOnDate copies every source event occurring on sourceDate onto
// targetDate in the target calendar. It is the one-day case of
// CopyEventsBetween and shares its semantics, including series regrouping
// and per-item fault isolation.
func (c *Copier) CopyEventsOnDate(ctx context.Context, sourceDate time.Time, target calendar.Calendar, targetDate time.Time) (Report, error) {
	return c.CopyEventsBetween(ctx, sourceDate, sourceDate, target, targetDate)
}

// CopyEventsBetween copies every source event in the inclusive
// [startDate, endDate] range, shifting each by the day offset between
// startDate and targetStartDate and reinterpreting its wall-clock date-time
// in the target calendar's timezone. An all-day source stays all-day on its
// shifted date. Source events sharing one series id are regrouped under one
// freshly minted id at the destination. Precondition
// failures (zero dates, inverted range, nil target) abort before any copy;
// per-item failures (duplicate in target, rebased interval turned invalid)
// skip that item and continue.
func (c *Copier) CopyEventsBetween(ctx context.Context, startDate, endDate time.Time, target calendar.Calendar, targetStartDate time.Time) (Report, error) {
	if target == nil {
		return Report{}, fmt.Errorf("copy requires a target calendar: %w", event.ErrInvalidArgument)
	}
	if startDate.IsZero() || endDate.IsZero() || targetStartDate.IsZero() {
		return Report{}, fmt.Errorf("copy requires source and target dates: %w", event.ErrInvalidArgument)
	}
	if daysBetween(startDate, endDate) < 0 {
		return Report{}, fmt.Errorf("copy range start %s is after end %s: %w",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), event.ErrInvalidArgument)
	}

	srcLoc := c.source.Location()
	rangeStart := startOfDay(startDate, srcLoc)
	rangeEnd := startOfDay(endDate, srcLoc).AddDate(0, 0, 1)
	events := c.source.EventsBetween(ctx, rangeStart, rangeEnd)

	dayOffset := daysBetween(startDate, targetStartDate)
	dstLoc := target.Location()
	seriesIDs := make(map[string]string)

	var report Report
	for _, src := range events {
		seriesID := ""
		if src.SeriesID != "" {
			mapped, ok := seriesIDs[src.SeriesID]
			if !ok {
				mapped = c.ids.NewID()
				seriesIDs[src.SeriesID] = mapped
			}
			seriesID = mapped
		}

		newStart := shiftWallClock(src.Start, srcLoc, dayOffset, dstLoc)
		newEnd := shiftWallClock(src.End, srcLoc, dayOffset, dstLoc)

		clone, err := cloneAt(src, newStart, newEnd, seriesID, src.AllDay)
		if err != nil {
			// A rebased interval can come out inverted under extreme zone
			// offsets; skip the item, keep the batch going.
			log.Debugf("skipping %q at %s: %v", src.Subject, src.Start.Format(time.RFC3339), err)
			report.Skipped = append(report.Skipped, SkippedEvent{Event: src, Reason: err})
			continue
		}
		if err := target.CreateEvent(ctx, clone); err != nil {
			if !errors.Is(err, calendar.ErrDuplicateEvent) {
				return report, fmt.Errorf("failed to copy %q into calendar %q: %w", src.Subject, target.Name(), err)
			}
			log.Debugf("skipping %q at %s: already present in %q", src.Subject, src.Start.Format(time.RFC3339), target.Name())
			report.Skipped = append(report.Skipped, SkippedEvent{Event: src, Reason: err})
			continue
		}
		report.Copied = append(report.Copied, clone)
	}

	log.Debugf("copied %d events from %q to %q, skipped %d",
		len(report.Copied), c.source.Name(), target.Name(), len(report.Skipped))
	return report, nil
}

func cloneAt(src event.Event, start, end time.Time, seriesID string, allDay bool) (event.Event, error) {
	b := event.NewBuilder(src.Subject, start, end).
		Description(src.Description).
		Location(src.Location).
		Status(src.Status).
		SeriesID(seriesID)
	if allDay {
		b = b.AllDay()
	}
	return b.Build()
}

// shiftWallClock moves a timestamp by whole calendar days, preserving its
// wall-clock components as seen in srcLoc and reinterpreting them in dstLoc.
// The absolute instant may change; the local time of day does not.
func shiftWallClock(t time.Time, srcLoc *time.Location, dayOffset int, dstLoc *time.Location) time.Time {
	local := t.In(srcLoc)
	y, m, d := local.Date()
	return time.Date(y, m, d+dayOffset, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), dstLoc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts whole calendar days from a's date to b's date.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
