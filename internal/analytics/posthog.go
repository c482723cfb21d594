package analytics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// PostHogConfig for creating a PostHog sink.
type PostHogConfig struct {
	APIKey        string
	Host          string
	DistinctID    string // generated when empty
	FlushAt       int
	FlushInterval time.Duration
}

// PostHog captures events to a PostHog project. Delivery is asynchronous and
// best effort: failures are logged and dropped.
type PostHog struct {
	client     posthog.Client
	distinctID string
}

// NewPostHog creates a PostHog sink.
func NewPostHog(cfg PostHogConfig) (*PostHog, error) {
	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint:  cfg.Host,
		BatchSize: cfg.FlushAt,
		Interval:  cfg.FlushInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("posthog client: %w", err)
	}
	return newPostHogWithClient(client, cfg.DistinctID), nil
}

func newPostHogWithClient(client posthog.Client, distinctID string) *PostHog {
	if distinctID == "" {
		distinctID = uuid.NewString()
	}
	return &PostHog{client: client, distinctID: distinctID}
}

// DistinctID returns the id events are attributed to.
func (p *PostHog) DistinctID() string {
	return p.distinctID
}

// Capture enqueues event for delivery.
func (p *PostHog) Capture(event string, properties map[string]any) {
	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	err := p.client.Enqueue(posthog.Capture{
		DistinctId: p.distinctID,
		Event:      event,
		Properties: props,
	})
	if err != nil {
		slog.Warn("analytics: posthog enqueue failed", "event", event, "err", err)
	}
}

// Close flushes pending events.
func (p *PostHog) Close() error {
	return p.client.Close()
}
