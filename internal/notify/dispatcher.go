package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Dispatcher wraps a Sender with bounded exponential-backoff retries.
type Dispatcher struct {
	sender   Sender
	attempts uint
	initial  time.Duration
}

// NewDispatcher retries sender up to attempts times, starting at initial
// between tries.
func NewDispatcher(sender Sender, attempts int, initial time.Duration) *Dispatcher {
	if attempts < 1 {
		attempts = 1
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &Dispatcher{sender: sender, attempts: uint(attempts), initial: initial}
}

// Send delivers n, retrying transient failures.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initial

	try := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		try++
		if err := d.sender.Send(ctx, n); err != nil {
			slog.Debug("notify: send attempt failed", "kind", n.Kind, "try", try, "err", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.attempts))
	if err != nil {
		return fmt.Errorf("send %s notification: %w", n.Kind, err)
	}
	return nil
}
