package export

import (
	"fmt"
	"io"

	"github.com/emersion/go-ical"

	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/event"
)

// ICSRenderer writes an event snapshot as an RFC 5545 VCALENDAR block.
// DTSTART/DTEND are emitted in UTC; text escaping is handled by the ical
// encoder.
type ICSRenderer struct {
	clock utils.Clock
	ids   utils.IDGenerator
}

func NewICSRenderer() *ICSRenderer {
	return &ICSRenderer{clock: utils.SystemClock{}, ids: utils.UUIDGenerator{}}
}

// WithClock and WithIDGenerator pin DTSTAMP and UID generation for tests.
func (r *ICSRenderer) WithClock(clock utils.Clock) *ICSRenderer {
	r.clock = clock
	return r
}

func (r *ICSRenderer) WithIDGenerator(ids utils.IDGenerator) *ICSRenderer {
	r.ids = ids
	return r
}

func (r *ICSRenderer) Render(w io.Writer, events []event.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//kalendo//EN")

	now := r.clock.Now().UTC()
	for _, e := range events {
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, r.ids.NewID())
		ve.Props.SetDateTime(ical.PropDateTimeStamp, now)
		ve.Props.SetText(ical.PropSummary, e.Subject)
		ve.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
		if e.Description != "" {
			ve.Props.SetText(ical.PropDescription, e.Description)
		}
		if e.Location != "" {
			ve.Props.SetText(ical.PropLocation, e.Location)
		}
		if e.Status == event.StatusPrivate {
			ve.Props.SetText(ical.PropClass, "PRIVATE")
		} else {
			ve.Props.SetText(ical.PropClass, "PUBLIC")
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar to ics: %w", err)
	}
	return nil
}
