package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalendo/kalendo/pkg/event"
)

func TestCSVRender(t *testing.T) {
	start := time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)
	e, err := event.NewBuilder("Standup, daily", start, start.Add(30*time.Minute)).
		Description("sync with \"the team\"").
		Location("Room 1").
		Status(event.StatusPrivate).
		SeriesID("series-1").
		Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVRenderer().Render(&buf, []event.Event{e}))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"Subject", "Start", "End", "Description", "Location", "Status", "AllDay", "SeriesId"}, records[0])
	assert.Equal(t, "Standup, daily", records[1][0])
	assert.Equal(t, "2025-11-10T09:00:00Z", records[1][1])
	assert.Equal(t, "2025-11-10T09:30:00Z", records[1][2])
	assert.Equal(t, "sync with \"the team\"", records[1][3])
	assert.Equal(t, "Room 1", records[1][4])
	assert.Equal(t, "private", records[1][5])
	assert.Equal(t, "false", records[1][6])
	assert.Equal(t, "series-1", records[1][7])
}

func TestCSVRenderEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVRenderer().Render(&buf, nil))
	assert.Equal(t, "Subject,Start,End,Description,Location,Status,AllDay,SeriesId\n", buf.String())
}
