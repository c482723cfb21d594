package pet

import (
	"sync"
	"time"
)

// DefaultSurpriseDuration is how long the surprise flag stays up after a tap.
const DefaultSurpriseDuration = 500 * time.Millisecond

// pulse raises a boolean stream to true and lowers it again after a delay.
// Re-triggering restarts the delay. It is not part of the state mutation path.
type pulse struct {
	stream *Stream[bool]
	dur    time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func newPulse(dur time.Duration) *pulse {
	if dur <= 0 {
		dur = DefaultSurpriseDuration
	}
	return &pulse{
		stream: newStateStream("surprise", false),
		dur:    dur,
	}
}

func (p *pulse) trigger() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen
	p.stream.publish(0, true)
	p.timer = time.AfterFunc(p.dur, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// A newer trigger owns the flag now.
		if p.stopped || p.gen != gen {
			return
		}
		p.stream.publish(0, false)
	})
}

func (p *pulse) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.stream.close()
}
