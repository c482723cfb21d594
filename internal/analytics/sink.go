// Package analytics provides sinks for the pet engine's analytics events.
package analytics

import "log/slog"

// Sink receives analytics events. It matches pet.AnalyticsSink.
type Sink interface {
	Capture(event string, properties map[string]any)
}

// Logger logs every event at debug level.
type Logger struct{}

func (Logger) Capture(event string, properties map[string]any) {
	args := []any{"event", event}
	for k, v := range properties {
		args = append(args, k, v)
	}
	slog.Debug("analytics: capture", args...)
}

// Multi fans each event out to every sink in order.
type Multi []Sink

func (m Multi) Capture(event string, properties map[string]any) {
	for _, s := range m {
		// Each sink gets its own copy so one cannot mutate another's view.
		props := make(map[string]any, len(properties))
		for k, v := range properties {
			props[k] = v
		}
		s.Capture(event, props)
	}
}
