// Package watch implements the change-notification boundary for day-record
// writes. The attendance store publishes an event after every successful
// create or update; reactive handlers subscribe here instead of hooking the
// database directly.
package watch

import (
	"context"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

// Event describes one committed day-record write. Before is nil on create.
type Event struct {
	SchoolID       string
	ClassSectionID string
	Date           string
	Before         *models.DayRecord
	After          *models.DayRecord
}

// Handler reacts to one event. A handler error is logged, never propagated
// to the writer.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher fans one event out to every registered handler, in
// registration order, synchronously with the triggering write.
type Dispatcher struct {
	handlers []namedHandler
	logger   *zap.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Register subscribes a handler under a name used in failure logs.
// Not safe for concurrent use with Dispatch; register everything at startup.
func (d *Dispatcher) Register(name string, fn Handler) {
	d.handlers = append(d.handlers, namedHandler{name: name, fn: fn})
}

// Dispatch invokes every handler for the event. One handler failing does
// not stop the others, and no failure reaches the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	for _, h := range d.handlers {
		if err := h.fn(ctx, ev); err != nil {
			d.logger.Error("day record watcher failed",
				zap.String("handler", h.name),
				zap.String("school_id", ev.SchoolID),
				zap.String("class_section_id", ev.ClassSectionID),
				zap.String("date", ev.Date),
				zap.Error(err),
			)
		}
	}
}
