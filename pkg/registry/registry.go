// Package registry keeps the named calendars of one session and tracks which
// one is active.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kalendo/kalendo/pkg/calendar"
	"github.com/kalendo/kalendo/pkg/event"
)

var (
	ErrCalendarNotFound  = errors.New("calendar not found")
	ErrDuplicateCalendar = errors.New("calendar already exists")
	// ErrNoActiveCalendar is returned when an operation needs the active
	// calendar and none has been selected yet.
	ErrNoActiveCalendar = errors.New("no calendar in use")
)

// Info describes one registered calendar.
type Info struct {
	Name     string
	Timezone string
	Active   bool
}

// Manager is the calendar registry. Not safe for concurrent use.
type Manager struct {
	calendars map[string]*calendar.Service
	order     []string
	active    string
}

func NewManager() *Manager {
	return &Manager{calendars: make(map[string]*calendar.Service)}
}

// CreateCalendar registers a new calendar under a unique name with an IANA
// timezone.
func (m *Manager) CreateCalendar(ctx context.Context, name, timezone string) (*calendar.Service, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("calendar name must not be blank: %w", event.ErrInvalidArgument)
	}
	if _, exists := m.calendars[name]; exists {
		return nil, fmt.Errorf("calendar %q: %w", name, ErrDuplicateCalendar)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", timezone, event.ErrInvalidArgument)
	}

	cal := calendar.NewService(name, loc)
	m.calendars[name] = cal
	m.order = append(m.order, name)
	log.Infof("created calendar %q in timezone %s", name, timezone)
	return cal, nil
}

// UseCalendar selects the active calendar.
func (m *Manager) UseCalendar(ctx context.Context, name string) error {
	if _, exists := m.calendars[name]; !exists {
		return fmt.Errorf("calendar %q: %w", name, ErrCalendarNotFound)
	}
	m.active = name
	log.Debugf("using calendar %q", name)
	return nil
}

// EditCalendar changes a calendar's name or timezone.
func (m *Manager) EditCalendar(ctx context.Context, name, property, value string) error {
	cal, exists := m.calendars[name]
	if !exists {
		return fmt.Errorf("calendar %q: %w", name, ErrCalendarNotFound)
	}

	switch strings.ToLower(property) {
	case "name":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("calendar name must not be blank: %w", event.ErrInvalidArgument)
		}
		if _, taken := m.calendars[value]; taken && value != name {
			return fmt.Errorf("calendar %q: %w", value, ErrDuplicateCalendar)
		}
		delete(m.calendars, name)
		cal.Rename(value)
		m.calendars[value] = cal
		for i, n := range m.order {
			if n == name {
				m.order[i] = value
			}
		}
		if m.active == name {
			m.active = value
		}
	case "timezone":
		loc, err := time.LoadLocation(value)
		if err != nil {
			return fmt.Errorf("unknown timezone %q: %w", value, event.ErrInvalidArgument)
		}
		cal.SetLocation(loc)
	default:
		return fmt.Errorf("unknown calendar property %q: %w", property, event.ErrInvalidArgument)
	}

	log.Infof("edited calendar %q: %s = %s", name, property, value)
	return nil
}

// ListCalendars returns registered calendars in creation order.
func (m *Manager) ListCalendars(ctx context.Context) []Info {
	out := make([]Info, 0, len(m.order))
	for _, name := range m.order {
		cal := m.calendars[name]
		out = append(out, Info{
			Name:     cal.Name(),
			Timezone: cal.Location().String(),
			Active:   name == m.active,
		})
	}
	return out
}

// Calendar resolves a calendar by name.
func (m *Manager) Calendar(ctx context.Context, name string) (*calendar.Service, error) {
	cal, exists := m.calendars[name]
	if !exists {
		return nil, fmt.Errorf("calendar %q: %w", name, ErrCalendarNotFound)
	}
	return cal, nil
}

// Active returns the currently selected calendar.
func (m *Manager) Active(ctx context.Context) (*calendar.Service, error) {
	if m.active == "" {
		return nil, ErrNoActiveCalendar
	}
	return m.calendars[m.active], nil
}
