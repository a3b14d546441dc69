package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/event"
)

func mustEvent(t *testing.T, subject string, start, end time.Time) event.Event {
	t.Helper()
	e, err := event.NewBuilder(subject, start, end).Build()
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	until := time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC)

	t.Run("rejects empty weekday set", func(t *testing.T) {
		_, err := New(nil, 3, time.Time{})
		assert.ErrorIs(t, err, event.ErrInvalidArgument)
	})

	t.Run("rejects both terminations", func(t *testing.T) {
		_, err := New([]time.Weekday{time.Monday}, 3, until)
		assert.ErrorIs(t, err, event.ErrInvalidArgument)
	})

	t.Run("rejects neither termination", func(t *testing.T) {
		_, err := New([]time.Weekday{time.Monday}, 0, time.Time{})
		assert.ErrorIs(t, err, event.ErrInvalidArgument)
	})

	t.Run("deduplicates and sorts weekdays", func(t *testing.T) {
		rule, err := New([]time.Weekday{time.Friday, time.Monday, time.Friday}, 2, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, rule.Weekdays())
	})
}

func TestGenerate(t *testing.T) {
	// Monday 2025-11-10
	seedStart := time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)
	seed := mustEvent(t, "Standup", seedStart, seedStart.Add(30*time.Minute))

	t.Run("occurrence count on requested weekdays", func(t *testing.T) {
		rule, err := New([]time.Weekday{time.Monday, time.Wednesday, time.Friday}, 3, time.Time{})
		require.NoError(t, err)
		rule.WithIDGenerator(&utils.SequenceIDGenerator{Prefix: "series"})

		series, err := rule.Generate(seed)
		require.NoError(t, err)
		require.Len(t, series, 3)

		assert.Equal(t, 10, series[0].Start.Day())
		assert.Equal(t, 12, series[1].Start.Day())
		assert.Equal(t, 14, series[2].Start.Day())
		for _, e := range series {
			assert.Equal(t, "Standup", e.Subject)
			assert.Equal(t, 9, e.Start.Hour())
			assert.Equal(t, 30*time.Minute, e.Duration())
			assert.Equal(t, "series-1", e.SeriesID)
		}
	})

	t.Run("seed weekday not in set starts on next matching day", func(t *testing.T) {
		rule, err := New([]time.Weekday{time.Thursday}, 2, time.Time{})
		require.NoError(t, err)

		series, err := rule.Generate(seed)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, time.Thursday, series[0].Start.Weekday())
		assert.Equal(t, 13, series[0].Start.Day())
		assert.Equal(t, 20, series[1].Start.Day())
	})

	t.Run("until boundary is inclusive", func(t *testing.T) {
		// 2025-11-24 is a Monday; a Monday rule must include it.
		until := time.Date(2025, time.November, 24, 0, 0, 0, 0, time.UTC)
		rule, err := New([]time.Weekday{time.Monday}, 0, until)
		require.NoError(t, err)

		series, err := rule.Generate(seed)
		require.NoError(t, err)
		require.Len(t, series, 3)
		assert.Equal(t, 24, series[2].Start.Day())
	})

	t.Run("descriptive fields are copied", func(t *testing.T) {
		richSeed, err := event.NewBuilder("Standup", seedStart, seedStart.Add(30*time.Minute)).
			Description("daily sync").
			Location("Room 1").
			Status(event.StatusPrivate).
			Build()
		require.NoError(t, err)

		rule, err := New([]time.Weekday{time.Monday}, 2, time.Time{})
		require.NoError(t, err)
		series, err := rule.Generate(richSeed)
		require.NoError(t, err)
		for _, e := range series {
			assert.Equal(t, "daily sync", e.Description)
			assert.Equal(t, "Room 1", e.Location)
			assert.Equal(t, event.StatusPrivate, e.Status)
		}
	})

	t.Run("all-day seed produces all-day occurrences", func(t *testing.T) {
		allDaySeed, err := event.NewBuilder("Workshop", seedStart, seedStart.Add(time.Hour)).AllDay().Build()
		require.NoError(t, err)

		rule, err := New([]time.Weekday{time.Monday, time.Tuesday}, 2, time.Time{})
		require.NoError(t, err)
		series, err := rule.Generate(allDaySeed)
		require.NoError(t, err)
		require.Len(t, series, 2)
		for _, e := range series {
			assert.True(t, e.AllDay)
			assert.Equal(t, 8, e.Start.Hour())
			assert.Equal(t, 17, e.End.Hour())
		}
	})

	t.Run("each generation mints a distinct series id", func(t *testing.T) {
		rule, err := New([]time.Weekday{time.Monday}, 1, time.Time{})
		require.NoError(t, err)

		first, err := rule.Generate(seed)
		require.NoError(t, err)
		second, err := rule.Generate(seed)
		require.NoError(t, err)
		assert.NotEqual(t, first[0].SeriesID, second[0].SeriesID)
	})
}
