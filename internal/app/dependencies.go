package app

import (
	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/export"
	"github.com/kalendo/kalendo/pkg/registry"
)

// Dependencies holds the services the command dispatcher works against.
type Dependencies struct {
	Registry *registry.Manager
	Bus      *event_bus.EventBus

	CSVRenderer *export.CSVRenderer
	ICSRenderer *export.ICSRenderer

	Clock utils.Clock
}

// BuildDependencies initializes and wires all session services.
func BuildDependencies(cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Registry = registry.NewManager()
	deps.Bus = event_bus.NewEventBus()
	deps.CSVRenderer = export.NewCSVRenderer()
	deps.ICSRenderer = export.NewICSRenderer()
	deps.Clock = utils.SystemClock{}

	return deps
}
