package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/internal/event_bus"
)

// Application wires configuration, services, and the command-line surface.
type Application struct {
	cfg        config.Application
	deps       *Dependencies
	dispatcher *Dispatcher
	cli        *cli.App
}

// NewApplication constructs the full application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, log.GetLevel())
	}

	deps := BuildDependencies(cfg)
	subscribeLogging(deps.Bus)

	// Every session starts with one usable calendar.
	ctx := context.Background()
	if _, err := deps.Registry.CreateCalendar(ctx, cfg.Calendar.Name, cfg.Calendar.Timezone); err != nil {
		return nil, fmt.Errorf("failed to create default calendar: %w", err)
	}
	if err := deps.Registry.UseCalendar(ctx, cfg.Calendar.Name); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:        cfg,
		deps:       deps,
		dispatcher: NewDispatcher(deps, cfg.Export.Directory),
	}
	app.cli = &cli.App{
		Name:  "kalendo",
		Usage: "Manage calendars with recurring events, scoped edits, and cross-timezone copies.",
		Commands: []*cli.Command{
			app.interactiveCommand(),
			app.headlessCommand(),
		},
		DefaultCommand: "interactive",
	}
	return app, nil
}

// Run starts the CLI and blocks until the session ends.
func (a *Application) Run(args []string) error {
	return a.cli.Run(args)
}

func (a *Application) interactiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "interactive",
		Usage: "Read commands from standard input until \"exit\".",
		Action: func(c *cli.Context) error {
			return a.runInteractive(c.Context, os.Stdin, os.Stdout)
		},
	}
}

func (a *Application) headlessCommand() *cli.Command {
	return &cli.Command{
		Name:  "headless",
		Usage: "Run a command script and stop at the first failure.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "script", Required: true, Usage: "Path to the command script."},
		},
		Action: func(c *cli.Context) error {
			f, err := os.Open(c.String("script"))
			if err != nil {
				return fmt.Errorf("failed to open script: %w", err)
			}
			defer f.Close()
			return a.runHeadless(c.Context, f, os.Stdout)
		},
	}
}

// runInteractive reports command failures and keeps the session going.
func (a *Application) runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			return nil
		}
		output, err := a.dispatcher.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		} else if output != "" {
			fmt.Fprintln(out, output)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// runHeadless aborts on the first failing command.
func (a *Application) runHeadless(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			return nil
		}
		output, err := a.dispatcher.Execute(ctx, line)
		if err != nil {
			return fmt.Errorf("line %d (%q): %w", lineNo, line, err)
		}
		if output != "" {
			fmt.Fprintln(out, output)
		}
	}
	return scanner.Err()
}

// subscribeLogging attaches session logging to all mutation notifications.
func subscribeLogging(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.CalendarCreated, func(e event_bus.EventT[event_bus.CalendarCreatedPayload]) error {
		log.Infof("calendar %q created in %s", e.Data.Name, e.Data.Timezone)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventCreated, func(e event_bus.EventT[event_bus.EventCreatedPayload]) error {
		log.Infof("event %q created in calendar %q", e.Data.Subject, e.Data.Calendar)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.SeriesCreated, func(e event_bus.EventT[event_bus.SeriesCreatedPayload]) error {
		log.Infof("series %q (%d events) created in calendar %q", e.Data.Subject, e.Data.Occurrences, e.Data.Calendar)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventsEdited, func(e event_bus.EventT[event_bus.EventsEditedPayload]) error {
		if e.Data.SplitSeriesID != "" {
			log.Infof("edited %d event(s) in calendar %q (%s), split onto series %s",
				e.Data.Count, e.Data.Calendar, e.Data.Property, e.Data.SplitSeriesID)
		} else {
			log.Infof("edited %d event(s) in calendar %q (%s)", e.Data.Count, e.Data.Calendar, e.Data.Property)
		}
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventsCopied, func(e event_bus.EventT[event_bus.EventsCopiedPayload]) error {
		log.Infof("copied %d event(s) from %q to %q, skipped %d", e.Data.Copied, e.Data.Source, e.Data.Target, e.Data.Skipped)
		return nil
	})
}
