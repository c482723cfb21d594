package pet

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDecayInterval is how often stats decay while the engine runs.
const DefaultDecayInterval = 30 * time.Second

// Analytics event names.
const (
	EventAction  = "hog_action"
	EventLevelUp = "hog_level_up"
)

// MoodEvent returns the analytics event name for entering mood m.
func MoodEvent(m Mood) string {
	return "hog_" + string(m)
}

// AnalyticsSink receives analytics events. Implementations must not block
// for long; the engine calls it outside its lock but on the caller's goroutine.
type AnalyticsSink interface {
	Capture(event string, properties map[string]any)
}

// Config for creating an Engine.
type Config struct {
	Name             string
	DecayInterval    time.Duration
	SurpriseDuration time.Duration
}

// Result describes an accepted action.
type Result struct {
	State       State
	Feedback    string
	Transitions []Transition
}

// Engine owns the single authoritative pet State. Decay ticks and actions are
// serialized through mu. pubMu is taken before mu is released and held while
// analytics and subscribers are notified, so reports leave in commit order
// without holding the state lock. Sinks must not call back into the engine.
type Engine struct {
	mu      sync.Mutex
	state   State
	moods   moodTracker
	version uint64
	closed  bool

	pubMu sync.Mutex

	interval time.Duration
	sink     AnalyticsSink

	states      *Stream[State]
	feedback    *Stream[string]
	transitions *Stream[Transition]
	surprise    *pulse

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an engine with the default starting state. A nil sink discards
// analytics. The decay loop does not run until Start or Run is called.
func New(cfg Config, sink AnalyticsSink) *Engine {
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = DefaultDecayInterval
	}
	if sink == nil {
		sink = nopSink{}
	}

	initial := NewState(cfg.Name)
	return &Engine{
		state:       initial,
		interval:    cfg.DecayInterval,
		sink:        sink,
		states:      newStateStream("state", initial),
		feedback:    newStateStream("feedback", ""),
		transitions: newEventStream[Transition]("transitions", 16),
		surprise:    newPulse(cfg.SurpriseDuration),
		stop:        make(chan struct{}),
	}
}

// Start runs the decay loop in the background until ctx is cancelled or
// Close is called.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Run(ctx)
	}()
}

// Run applies decay every interval. Blocks until ctx is cancelled or the
// engine is closed.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	slog.Info("engine: decay loop started", "interval", e.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Close stops the decay loop, waits for it to exit and closes every stream.
// Mutations after Close are ignored.
func (e *Engine) Close() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		close(e.stop)
		e.wg.Wait()

		e.surprise.stop()
		e.states.close()
		e.feedback.close()
		e.transitions.close()
		slog.Info("engine: stopped")
	})
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// States streams every state, starting with the current one.
func (e *Engine) States() (<-chan State, func()) { return e.states.Subscribe() }

// Feedback streams the feedback message of the latest action ("" before any).
func (e *Engine) Feedback() (<-chan string, func()) { return e.feedback.Subscribe() }

// Surprise streams the tap pulse: true right after a tap, false once it fades.
func (e *Engine) Surprise() (<-chan bool, func()) { return e.surprise.stream.Subscribe() }

// Transitions streams every detected transition. There is no replay.
func (e *Engine) Transitions() (<-chan Transition, func()) { return e.transitions.Subscribe() }

// LastFeedback returns the feedback message of the most recent action.
func (e *Engine) LastFeedback() string { return e.feedback.Value() }

// Tick applies one round of decay.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	u := e.commit(e.state.decayed())
	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()

	slog.Debug("engine: decay", "hunger", u.state.Hunger, "happiness", u.state.Happiness,
		"energy", u.state.Energy, "mood", u.state.Mood)

	e.report(u)
	e.publish(u, "")
}

// ApplyAction applies a to the pet. It returns false, without touching the
// state, if a is not a known action or the engine is closed.
func (e *Engine) ApplyAction(a Action) (Result, bool) {
	if !a.Valid() {
		slog.Debug("engine: ignoring unknown action", "action", string(a))
		return Result{}, false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Result{}, false
	}
	u := e.commit(e.state.applied(a))
	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()

	fb := a.Feedback(u.state.Name)
	slog.Debug("engine: action", "action", string(a), "hunger", u.state.Hunger,
		"happiness", u.state.Happiness, "energy", u.state.Energy, "level", u.state.Level)

	e.sink.Capture(EventAction, map[string]any{
		"action":             string(a),
		"hog_name":           u.state.Name,
		"happiness":          u.state.Happiness,
		"hunger":             u.state.Hunger,
		"energy":             u.state.Energy,
		"level":              u.state.Level,
		"total_interactions": u.state.TotalInteractions,
	})
	e.report(u)
	e.publish(u, fb)

	return Result{State: u.state, Feedback: fb, Transitions: u.transitions}, true
}

// HandleActionToken applies the action named by a notification deep-link
// token ("feed", "play" or "sleep"). Unknown tokens are ignored.
func (e *Engine) HandleActionToken(token string) bool {
	_, ok := e.ApplyToken(token)
	return ok
}

// ApplyToken is HandleActionToken returning the Result of the applied action.
func (e *Engine) ApplyToken(token string) (Result, bool) {
	a, ok := ActionForToken(token)
	if !ok {
		slog.Debug("engine: ignoring action token", "token", token)
		return Result{}, false
	}
	return e.ApplyAction(a)
}

// OnTap pets the pet and raises the surprise pulse.
func (e *Engine) OnTap() Result {
	e.surprise.trigger()
	r, _ := e.ApplyAction(ActionPet)
	return r
}

type update struct {
	version     uint64
	state       State
	transitions []Transition
}

// commit installs next as the current state. Caller holds e.mu.
func (e *Engine) commit(next State) update {
	prev := e.state
	e.state = next
	e.version++
	return update{
		version:     e.version,
		state:       next,
		transitions: e.moods.detect(prev, next),
	}
}

// report sends level-up and mood analytics for u.
func (e *Engine) report(u update) {
	for _, t := range u.transitions {
		switch t.Kind {
		case TransitionLevelUp:
			slog.Info("engine: level up", "name", t.State.Name, "level", t.ToLevel)
			e.sink.Capture(EventLevelUp, map[string]any{
				"hog_name":  t.State.Name,
				"new_level": t.ToLevel,
			})
		case TransitionMoodChanged:
			slog.Info("engine: mood changed", "from", t.FromMood, "to", t.ToMood)
			e.sink.Capture(MoodEvent(t.ToMood), map[string]any{
				"hog_name":  t.State.Name,
				"mood":      string(t.ToMood),
				"happiness": t.State.Happiness,
				"hunger":    t.State.Hunger,
				"energy":    t.State.Energy,
				"level":     t.State.Level,
			})
		}
	}
}

func (e *Engine) publish(u update, feedback string) {
	e.states.publish(u.version, u.state)
	if feedback != "" {
		e.feedback.publish(u.version, feedback)
	}
	for _, t := range u.transitions {
		e.transitions.publish(0, t)
	}
}

type nopSink struct{}

func (nopSink) Capture(string, map[string]any) {}
