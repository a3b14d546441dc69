package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/pkg/calendar"
	"github.com/kalendo/kalendo/pkg/copier"
	"github.com/kalendo/kalendo/pkg/event"
	"github.com/kalendo/kalendo/pkg/recurrence"
)

// Dispatcher parses the line-oriented command grammar and calls into the
// calendar core with typed parameters. All semantics live in the core; the
// dispatcher only parses, dispatches, and formats results.
type Dispatcher struct {
	deps      *Dependencies
	exportDir string
}

func NewDispatcher(deps *Dependencies, exportDir string) *Dispatcher {
	return &Dispatcher{deps: deps, exportDir: exportDir}
}

// Execute runs one command line and returns its printable output. Blank
// lines and #-comments produce no output and no error.
func (d *Dispatcher) Execute(ctx context.Context, line string) (string, error) {
	tokens := tokenize(line)
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
		return "", nil
	}

	log.Debugf("dispatching command: %s", line)
	switch strings.ToLower(tokens[0]) {
	case "create":
		return d.create(ctx, tokens)
	case "edit":
		return d.edit(ctx, tokens)
	case "use":
		return d.use(ctx, tokens)
	case "print":
		return d.print(ctx, tokens)
	case "show":
		return d.show(ctx, tokens)
	case "copy":
		return d.copy(ctx, tokens)
	case "export":
		return d.export(ctx, tokens)
	case "list":
		return d.list(ctx, tokens)
	default:
		return "", fmt.Errorf("unknown command %q: %w", tokens[0], event.ErrInvalidArgument)
	}
}

func (d *Dispatcher) create(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) < 2 {
		return "", fmt.Errorf("create requires a target (calendar or event): %w", event.ErrInvalidArgument)
	}
	switch strings.ToLower(tokens[1]) {
	case "calendar":
		return d.createCalendar(ctx, tokens)
	case "event":
		return d.createEvent(ctx, tokens)
	default:
		return "", fmt.Errorf("cannot create %q: %w", tokens[1], event.ErrInvalidArgument)
	}
}

func (d *Dispatcher) createCalendar(ctx context.Context, tokens []string) (string, error) {
	name, err := flagValue(tokens, "--name")
	if err != nil {
		return "", err
	}
	timezone, err := flagValue(tokens, "--timezone")
	if err != nil {
		return "", err
	}
	if _, err := d.deps.Registry.CreateCalendar(ctx, name, timezone); err != nil {
		return "", err
	}
	d.publish(event_bus.CalendarCreated, event_bus.CalendarCreatedPayload{Name: name, Timezone: timezone})
	return fmt.Sprintf("Created calendar %q (%s)", name, timezone), nil
}

func (d *Dispatcher) createEvent(ctx context.Context, tokens []string) (string, error) {
	cal, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 4 {
		return "", fmt.Errorf("create event requires a subject and a time clause: %w", event.ErrInvalidArgument)
	}
	subject := tokens[2]
	loc := cal.Location()

	var builder *event.Builder
	if hasKeyword(tokens, "on") && !hasKeyword(tokens, "from") {
		dateRaw, err := keywordValue(tokens, "on")
		if err != nil {
			return "", err
		}
		date, err := parseDate(dateRaw, loc)
		if err != nil {
			return "", err
		}
		builder = event.NewBuilder(subject, date, date.Add(time.Minute)).AllDay()
	} else {
		fromRaw, err := keywordValue(tokens, "from")
		if err != nil {
			return "", err
		}
		toRaw, err := keywordValue(tokens, "to")
		if err != nil {
			return "", err
		}
		start, err := parseDateTime(fromRaw, loc)
		if err != nil {
			return "", err
		}
		end, err := parseDateTime(toRaw, loc)
		if err != nil {
			return "", err
		}
		builder = event.NewBuilder(subject, start, end)
	}

	seed, err := builder.Build()
	if err != nil {
		return "", err
	}

	if !hasKeyword(tokens, "repeats") {
		if err := cal.CreateEvent(ctx, seed); err != nil {
			return "", err
		}
		d.publish(event_bus.EventCreated, event_bus.EventCreatedPayload{Calendar: cal.Name(), Subject: subject})
		return fmt.Sprintf("Created event %q", subject), nil
	}

	rule, err := d.parseRule(tokens, loc)
	if err != nil {
		return "", err
	}
	series, err := cal.CreateSeries(ctx, seed, rule)
	if err != nil {
		return "", err
	}
	d.publish(event_bus.SeriesCreated, event_bus.SeriesCreatedPayload{
		Calendar:    cal.Name(),
		Subject:     subject,
		SeriesID:    series[0].SeriesID,
		Occurrences: len(series),
	})
	return fmt.Sprintf("Created series %q with %d events", subject, len(series)), nil
}

func (d *Dispatcher) parseRule(tokens []string, loc *time.Location) (*recurrence.Rule, error) {
	weekdaysRaw, err := keywordValue(tokens, "repeats")
	if err != nil {
		return nil, err
	}
	weekdays, err := parseWeekdays(weekdaysRaw)
	if err != nil {
		return nil, err
	}

	switch {
	case hasKeyword(tokens, "for"):
		countRaw, err := keywordValue(tokens, "for")
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(countRaw)
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid occurrence count %q: %w", countRaw, event.ErrInvalidArgument)
		}
		return recurrence.New(weekdays, count, time.Time{})
	case hasKeyword(tokens, "until"):
		untilRaw, err := keywordValue(tokens, "until")
		if err != nil {
			return nil, err
		}
		until, err := parseDate(untilRaw, loc)
		if err != nil {
			return nil, err
		}
		return recurrence.New(weekdays, 0, until)
	default:
		return nil, fmt.Errorf("repeats requires a \"for N times\" or \"until date\" clause: %w", event.ErrInvalidArgument)
	}
}

func (d *Dispatcher) edit(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) < 2 {
		return "", fmt.Errorf("edit requires a target: %w", event.ErrInvalidArgument)
	}
	switch strings.ToLower(tokens[1]) {
	case "calendar":
		return d.editCalendar(ctx, tokens)
	case "event":
		return d.editEvents(ctx, tokens, calendar.EditSingle)
	case "events":
		return d.editEvents(ctx, tokens, calendar.EditFromThisOnward)
	case "series":
		return d.editEvents(ctx, tokens, calendar.EditEntireSeries)
	default:
		return "", fmt.Errorf("cannot edit %q: %w", tokens[1], event.ErrInvalidArgument)
	}
}

func (d *Dispatcher) editCalendar(ctx context.Context, tokens []string) (string, error) {
	name, err := flagValue(tokens, "--name")
	if err != nil {
		return "", err
	}
	property, err := flagValue(tokens, "--property")
	if err != nil {
		return "", err
	}
	// The value is the token after the property name.
	value := ""
	for i, tok := range tokens {
		if tok == "--property" && i+2 < len(tokens) {
			value = tokens[i+2]
		}
	}
	if value == "" {
		return "", fmt.Errorf("edit calendar requires a property value: %w", event.ErrInvalidArgument)
	}
	if err := d.deps.Registry.EditCalendar(ctx, name, property, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Edited calendar %q", name), nil
}

func (d *Dispatcher) editEvents(ctx context.Context, tokens []string, mode calendar.EditMode) (string, error) {
	cal, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 4 {
		return "", fmt.Errorf("edit requires a property and a subject: %w", event.ErrInvalidArgument)
	}
	property := tokens[2]
	subject := tokens[3]
	loc := cal.Location()

	fromRaw, err := keywordValue(tokens, "from")
	if err != nil {
		return "", err
	}
	start, err := parseDateTime(fromRaw, loc)
	if err != nil {
		return "", err
	}

	withIdx := -1
	for i, tok := range tokens {
		if strings.EqualFold(tok, "with") {
			withIdx = i
		}
	}
	if withIdx < 0 || withIdx+1 >= len(tokens) {
		return "", fmt.Errorf("edit requires a \"with <value>\" clause: %w", event.ErrInvalidArgument)
	}
	raw := strings.Join(tokens[withIdx+1:], " ")
	value, err := propertyValue(property, raw, loc)
	if err != nil {
		return "", err
	}

	key := event.NewAnchorKey(subject, start)
	if mode == calendar.EditSingle && hasKeyword(tokens, "to") {
		toRaw, err := keywordValue(tokens, "to")
		if err != nil {
			return "", err
		}
		end, err := parseDateTime(toRaw, loc)
		if err != nil {
			return "", err
		}
		key = event.NewKey(subject, start, end)
	}

	edited, err := cal.EditSeries(ctx, key, property, value, mode)
	if err != nil {
		return "", err
	}

	payload := event_bus.EventsEditedPayload{Calendar: cal.Name(), Property: property, Count: len(edited)}
	if mode == calendar.EditFromThisOnward && event.IsTimeProperty(property) && len(edited) > 0 {
		payload.SplitSeriesID = edited[0].SeriesID
	}
	d.publish(event_bus.EventsEdited, payload)
	return fmt.Sprintf("Edited %d event(s)", len(edited)), nil
}

func (d *Dispatcher) use(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) < 2 || !strings.EqualFold(tokens[1], "calendar") {
		return "", fmt.Errorf("usage: use calendar --name <name>: %w", event.ErrInvalidArgument)
	}
	name, err := flagValue(tokens, "--name")
	if err != nil {
		return "", err
	}
	if err := d.deps.Registry.UseCalendar(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using calendar %q", name), nil
}

func (d *Dispatcher) list(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) < 2 || !strings.EqualFold(tokens[1], "calendars") {
		return "", fmt.Errorf("usage: list calendars: %w", event.ErrInvalidArgument)
	}
	infos := d.deps.Registry.ListCalendars(ctx)
	if len(infos) == 0 {
		return "No calendars", nil
	}
	var b strings.Builder
	for _, info := range infos {
		marker := " "
		if info.Active {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", marker, info.Name, info.Timezone)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (d *Dispatcher) print(ctx context.Context, tokens []string) (string, error) {
	cal, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 2 || !strings.EqualFold(tokens[1], "events") {
		return "", fmt.Errorf("usage: print events on <date> | from <date-time> to <date-time>: %w", event.ErrInvalidArgument)
	}
	loc := cal.Location()

	var events []event.Event
	if hasKeyword(tokens, "on") {
		dateRaw, err := keywordValue(tokens, "on")
		if err != nil {
			return "", err
		}
		date, err := parseDate(dateRaw, loc)
		if err != nil {
			return "", err
		}
		events = cal.EventsOn(ctx, date)
	} else {
		fromRaw, err := keywordValue(tokens, "from")
		if err != nil {
			return "", err
		}
		toRaw, err := keywordValue(tokens, "to")
		if err != nil {
			return "", err
		}
		from, err := parseDateTime(fromRaw, loc)
		if err != nil {
			return "", err
		}
		to, err := parseDateTime(toRaw, loc)
		if err != nil {
			return "", err
		}
		events = cal.EventsBetween(ctx, from, to)
	}

	if len(events) == 0 {
		return "No events", nil
	}
	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "- %s: %s - %s", e.Subject, e.Start.In(loc).Format(dateTimeLayout), e.End.In(loc).Format(dateTimeLayout))
		if e.Location != "" {
			fmt.Fprintf(&b, " @ %s", e.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (d *Dispatcher) show(ctx context.Context, tokens []string) (string, error) {
	cal, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 2 || !strings.EqualFold(tokens[1], "status") {
		return "", fmt.Errorf("usage: show status [on <date-time>]: %w", event.ErrInvalidArgument)
	}

	at := d.deps.Clock.Now()
	if hasKeyword(tokens, "on") {
		raw, err := keywordValue(tokens, "on")
		if err != nil {
			return "", err
		}
		at, err = parseDateTime(raw, cal.Location())
		if err != nil {
			return "", err
		}
	}
	if cal.IsBusy(ctx, at) {
		return "busy", nil
	}
	return "available", nil
}

func (d *Dispatcher) copy(ctx context.Context, tokens []string) (string, error) {
	source, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 2 {
		return "", fmt.Errorf("copy requires a target (event or events): %w", event.ErrInvalidArgument)
	}
	targetName, err := flagValue(tokens, "--target")
	if err != nil {
		return "", err
	}
	target, err := d.deps.Registry.Calendar(ctx, targetName)
	if err != nil {
		return "", err
	}
	c, err := copier.New(source)
	if err != nil {
		return "", err
	}
	srcLoc := source.Location()
	dstLoc := target.Location()

	switch strings.ToLower(tokens[1]) {
	case "event":
		if len(tokens) < 3 {
			return "", fmt.Errorf("copy event requires an event name: %w", event.ErrInvalidArgument)
		}
		name := tokens[2]
		onRaw, err := keywordValue(tokens, "on")
		if err != nil {
			return "", err
		}
		sourceStart, err := parseDateTime(onRaw, srcLoc)
		if err != nil {
			return "", err
		}
		toRaw, err := keywordValue(tokens, "to")
		if err != nil {
			return "", err
		}
		newStart, err := parseDateTime(toRaw, dstLoc)
		if err != nil {
			return "", err
		}
		if _, err := c.CopyEvent(ctx, name, sourceStart, target, newStart); err != nil {
			return "", err
		}
		d.publish(event_bus.EventsCopied, event_bus.EventsCopiedPayload{
			Source: source.Name(), Target: targetName, Copied: 1,
		})
		return fmt.Sprintf("Copied event %q to calendar %q", name, targetName), nil

	case "events":
		var report copier.Report
		if hasKeyword(tokens, "between") {
			startRaw, err := keywordValue(tokens, "between")
			if err != nil {
				return "", err
			}
			endRaw, err := keywordValue(tokens, "and")
			if err != nil {
				return "", err
			}
			toRaw, err := keywordValue(tokens, "to")
			if err != nil {
				return "", err
			}
			startDate, err := parseDate(startRaw, srcLoc)
			if err != nil {
				return "", err
			}
			endDate, err := parseDate(endRaw, srcLoc)
			if err != nil {
				return "", err
			}
			targetDate, err := parseDate(toRaw, dstLoc)
			if err != nil {
				return "", err
			}
			report, err = c.CopyEventsBetween(ctx, startDate, endDate, target, targetDate)
			if err != nil {
				return "", err
			}
		} else {
			onRaw, err := keywordValue(tokens, "on")
			if err != nil {
				return "", err
			}
			toRaw, err := keywordValue(tokens, "to")
			if err != nil {
				return "", err
			}
			sourceDate, err := parseDate(onRaw, srcLoc)
			if err != nil {
				return "", err
			}
			targetDate, err := parseDate(toRaw, dstLoc)
			if err != nil {
				return "", err
			}
			report, err = c.CopyEventsOnDate(ctx, sourceDate, target, targetDate)
			if err != nil {
				return "", err
			}
		}
		d.publish(event_bus.EventsCopied, event_bus.EventsCopiedPayload{
			Source: source.Name(), Target: targetName,
			Copied: len(report.Copied), Skipped: len(report.Skipped),
		})
		return fmt.Sprintf("Copied %d event(s) to calendar %q, skipped %d", len(report.Copied), targetName, len(report.Skipped)), nil

	default:
		return "", fmt.Errorf("cannot copy %q: %w", tokens[1], event.ErrInvalidArgument)
	}
}

func (d *Dispatcher) export(ctx context.Context, tokens []string) (string, error) {
	cal, err := d.deps.Registry.Active(ctx)
	if err != nil {
		return "", err
	}
	if len(tokens) < 3 {
		return "", fmt.Errorf("usage: export cal|ical <file>: %w", event.ErrInvalidArgument)
	}

	path := filepath.Join(d.exportDir, tokens[2])
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer f.Close()

	events := cal.Events(ctx)
	switch strings.ToLower(tokens[1]) {
	case "cal":
		err = d.deps.CSVRenderer.Render(f, events)
	case "ical":
		err = d.deps.ICSRenderer.Render(f, events)
	default:
		return "", fmt.Errorf("unknown export format %q: %w", tokens[1], event.ErrInvalidArgument)
	}
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return fmt.Sprintf("Exported %d event(s) to %s", len(events), abs), nil
}

func (d *Dispatcher) publish(eventType event_bus.EventType, payload any) {
	if err := d.deps.Bus.Publish(event_bus.NewEvent(eventType, payload)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}
