package component

import (
	"log/slog"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
)

// Dependencies are handed to the runtime and to every unit factory
type Dependencies struct {
	Logger  *slog.Logger    // Structured logger (can be nil, defaults to slog.Default())
	Metrics *metric.Metrics // Showroom metrics (can be nil)
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
