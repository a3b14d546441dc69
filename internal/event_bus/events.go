package event_bus

// Notification types published by the command dispatcher.
const (
	EventCreated    EventType = "calendar.event.created"
	SeriesCreated   EventType = "calendar.series.created"
	EventsEdited    EventType = "calendar.events.edited"
	EventsCopied    EventType = "calendar.events.copied"
	CalendarCreated EventType = "registry.calendar.created"
)

type EventCreatedPayload struct {
	Calendar string
	Subject  string
}

type SeriesCreatedPayload struct {
	Calendar    string
	Subject     string
	SeriesID    string
	Occurrences int
}

type EventsEditedPayload struct {
	Calendar string
	Property string
	Count    int
	// SplitSeriesID is set when the edit moved events onto a new series.
	SplitSeriesID string
}

type EventsCopiedPayload struct {
	Source  string
	Target  string
	Copied  int
	Skipped int
}

type CalendarCreatedPayload struct {
	Name     string
	Timezone string
}
