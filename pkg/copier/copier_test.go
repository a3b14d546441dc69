package copier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/calendar"
	"github.com/kalendo/kalendo/pkg/event"
	"github.com/kalendo/kalendo/pkg/recurrence"
)

func addEvent(t *testing.T, cal *calendar.Service, subject string, start time.Time, duration time.Duration) event.Event {
	t.Helper()
	e, err := event.NewBuilder(subject, start, start.Add(duration)).
		Description("desc").
		Location("loc").
		Status(event.StatusPrivate).
		Build()
	require.NoError(t, err)
	require.NoError(t, cal.CreateEvent(context.Background(), e))
	return e
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, event.ErrInvalidArgument)
}

func TestCopyEvent(t *testing.T) {
	ctx := context.Background()
	source := calendar.NewService("source", time.UTC)
	target := calendar.NewService("target", time.UTC)
	start := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	addEvent(t, source, "Team Sync", start, time.Hour)

	c, err := New(source)
	require.NoError(t, err)

	t.Run("preserves duration and descriptive fields", func(t *testing.T) {
		newStart := time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC)
		clone, err := c.CopyEvent(ctx, "Team Sync", start, target, newStart)
		require.NoError(t, err)

		assert.Equal(t, newStart, clone.Start)
		assert.Equal(t, newStart.Add(time.Hour), clone.End)
		assert.Equal(t, "Team Sync", clone.Subject)
		assert.Equal(t, "desc", clone.Description)
		assert.Equal(t, "loc", clone.Location)
		assert.Equal(t, event.StatusPrivate, clone.Status)
		assert.Empty(t, clone.SeriesID, "a single copy is standalone")

		stored, err := target.FindEvent(ctx, event.NewAnchorKey("Team Sync", newStart))
		require.NoError(t, err)
		assert.True(t, stored.SameIdentity(clone))
	})

	t.Run("missing source event", func(t *testing.T) {
		_, err := c.CopyEvent(ctx, "Retro", start, target, start)
		assert.ErrorIs(t, err, calendar.ErrEventNotFound)
	})

	t.Run("nil target", func(t *testing.T) {
		_, err := c.CopyEvent(ctx, "Team Sync", start, nil, start)
		assert.ErrorIs(t, err, event.ErrInvalidArgument)
	})

	t.Run("duplicate in target surfaces", func(t *testing.T) {
		newStart := time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC)
		_, err := c.CopyEvent(ctx, "Team Sync", start, target, newStart)
		assert.ErrorIs(t, err, calendar.ErrDuplicateEvent)
	})

	t.Run("all-day source copies to an explicit time as a timed event", func(t *testing.T) {
		day := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
		holiday, err := event.NewBuilder("Holiday", day, day.Add(time.Minute)).
			AllDay().
			Build()
		require.NoError(t, err)
		require.NoError(t, source.CreateEvent(ctx, holiday))

		newStart := time.Date(2025, time.January, 7, 10, 0, 0, 0, time.UTC)
		clone, err := c.CopyEvent(ctx, "Holiday", holiday.Start, target, newStart)
		require.NoError(t, err)
		assert.False(t, clone.AllDay, "an explicit new start detaches the all-day window")
		assert.Equal(t, newStart, clone.Start)
		assert.Equal(t, holiday.Duration(), clone.Duration())
	})
}

func TestCopyEventsOnDate(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate item is skipped, the rest proceeds", func(t *testing.T) {
		source := calendar.NewService("source", time.UTC)
		target := calendar.NewService("target", time.UTC)
		day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		addEvent(t, source, "Breakfast", day.Add(8*time.Hour), time.Hour)
		colliding := addEvent(t, source, "Lunch", day.Add(12*time.Hour), time.Hour)

		// Pre-seed the target with the rebased copy of one source event.
		preexisting, err := event.NewBuilder("Lunch", colliding.Start.AddDate(0, 0, 1), colliding.End.AddDate(0, 0, 1)).Build()
		require.NoError(t, err)
		require.NoError(t, target.CreateEvent(ctx, preexisting))

		c, err := New(source)
		require.NoError(t, err)
		report, err := c.CopyEventsOnDate(ctx, day, target, day.AddDate(0, 0, 1))
		require.NoError(t, err, "per-item isolation must not surface the collision")

		require.Len(t, report.Copied, 1)
		assert.Equal(t, "Breakfast", report.Copied[0].Subject)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, "Lunch", report.Skipped[0].Event.Subject)
		assert.ErrorIs(t, report.Skipped[0].Reason, calendar.ErrDuplicateEvent)
	})

	t.Run("wall-clock time of day survives a timezone change", func(t *testing.T) {
		warsaw, err := time.LoadLocation("Europe/Warsaw")
		require.NoError(t, err)
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		source := calendar.NewService("warsaw", warsaw)
		target := calendar.NewService("tokyo", tokyo)
		start := time.Date(2025, time.January, 1, 9, 30, 0, 0, warsaw)
		addEvent(t, source, "Standup", start, 30*time.Minute)

		c, err := New(source)
		require.NoError(t, err)
		report, err := c.CopyEventsOnDate(ctx,
			time.Date(2025, time.January, 1, 0, 0, 0, 0, warsaw),
			target,
			time.Date(2025, time.January, 2, 0, 0, 0, 0, tokyo))
		require.NoError(t, err)
		require.Len(t, report.Copied, 1)

		copied := report.Copied[0]
		assert.Equal(t, tokyo, copied.Start.Location())
		assert.Equal(t, 9, copied.Start.Hour())
		assert.Equal(t, 30, copied.Start.Minute())
		assert.Equal(t, 2, copied.Start.Day())
		assert.False(t, copied.Start.Equal(start.AddDate(0, 0, 1)), "absolute instant shifts with the zone")
	})

	t.Run("all-day flag survives a day-offset copy", func(t *testing.T) {
		warsaw, err := time.LoadLocation("Europe/Warsaw")
		require.NoError(t, err)
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		source := calendar.NewService("warsaw", warsaw)
		target := calendar.NewService("tokyo", tokyo)
		day := time.Date(2025, time.January, 1, 0, 0, 0, 0, warsaw)
		holiday, err := event.NewBuilder("Holiday", day, day.Add(time.Minute)).AllDay().Build()
		require.NoError(t, err)
		require.NoError(t, source.CreateEvent(ctx, holiday))

		c, err := New(source)
		require.NoError(t, err)
		report, err := c.CopyEventsOnDate(ctx, day, target, time.Date(2025, time.January, 2, 0, 0, 0, 0, tokyo))
		require.NoError(t, err)
		require.Len(t, report.Copied, 1)

		copied := report.Copied[0]
		assert.True(t, copied.AllDay)
		assert.Equal(t, 8, copied.Start.In(tokyo).Hour())
		assert.Equal(t, 17, copied.End.In(tokyo).Hour())
		assert.Equal(t, 2, copied.Start.In(tokyo).Day())
	})
}

func TestCopyEventsBetween(t *testing.T) {
	ctx := context.Background()

	t.Run("validates preconditions before copying", func(t *testing.T) {
		source := calendar.NewService("source", time.UTC)
		target := calendar.NewService("target", time.UTC)
		day := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
		addEvent(t, source, "Sync", day.Add(9*time.Hour), time.Hour)

		c, err := New(source)
		require.NoError(t, err)

		_, err = c.CopyEventsBetween(ctx, day, day.AddDate(0, 0, -1), target, day)
		assert.ErrorIs(t, err, event.ErrInvalidArgument)

		_, err = c.CopyEventsBetween(ctx, time.Time{}, day, target, day)
		assert.ErrorIs(t, err, event.ErrInvalidArgument)

		_, err = c.CopyEventsBetween(ctx, day, day, nil, day)
		assert.ErrorIs(t, err, event.ErrInvalidArgument)

		assert.Empty(t, target.Events(ctx), "failed preconditions must not copy anything")
	})

	t.Run("series in range regroups under one fresh id", func(t *testing.T) {
		source := calendar.NewService("source", time.UTC).WithIDGenerator(&utils.SequenceIDGenerator{Prefix: "src"})
		target := calendar.NewService("target", time.UTC)

		seedStart := time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)
		seed, err := event.NewBuilder("Standup", seedStart, seedStart.Add(30*time.Minute)).Build()
		require.NoError(t, err)
		rule, err := recurrence.New([]time.Weekday{time.Monday, time.Wednesday, time.Friday}, 3, time.Time{})
		require.NoError(t, err)
		rule.WithIDGenerator(&utils.SequenceIDGenerator{Prefix: "series"})
		_, err = source.CreateSeries(ctx, seed, rule)
		require.NoError(t, err)
		addEvent(t, source, "Lunch", seedStart.Add(3*time.Hour), time.Hour)

		c, err := New(source)
		require.NoError(t, err)
		c.WithIDGenerator(&utils.SequenceIDGenerator{Prefix: "copied"})

		from := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, time.November, 14, 0, 0, 0, 0, time.UTC)
		report, err := c.CopyEventsBetween(ctx, from, to, target, from.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, report.Copied, 4)
		require.Empty(t, report.Skipped)

		var seriesIDs []string
		for _, e := range report.Copied {
			if e.Subject == "Standup" {
				seriesIDs = append(seriesIDs, e.SeriesID)
			} else {
				assert.Empty(t, e.SeriesID, "standalone events stay standalone")
			}
		}
		require.Len(t, seriesIDs, 3)
		for _, id := range seriesIDs {
			assert.Equal(t, "copied-1", id)
		}
		assert.NotEqual(t, "series-1", seriesIDs[0], "destination id differs from source id")
	})

	t.Run("inclusive date range with day offset", func(t *testing.T) {
		source := calendar.NewService("source", time.UTC)
		target := calendar.NewService("target", time.UTC)
		first := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
		last := time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)
		outside := time.Date(2025, time.March, 6, 9, 0, 0, 0, time.UTC)
		addEvent(t, source, "A", first, time.Hour)
		addEvent(t, source, "B", last, time.Hour)
		addEvent(t, source, "C", outside, time.Hour)

		c, err := New(source)
		require.NoError(t, err)
		report, err := c.CopyEventsBetween(ctx,
			time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			target,
			time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, report.Copied, 2)
		assert.Equal(t, 10, report.Copied[0].Start.Day())
		assert.Equal(t, 12, report.Copied[1].Start.Day())
	})
}
