package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/hogotchi/internal/pet"
)

// Source is the part of the pet engine the scheduler watches.
type Source interface {
	Snapshot() pet.State
	States() (<-chan pet.State, func())
	Transitions() (<-chan pet.Transition, func())
}

// Writer rewrites a notification body in the pet's voice.
type Writer interface {
	Compose(ctx context.Context, n Notification, s pet.State) (string, error)
}

// Config for the scheduler.
type Config struct {
	CheckInterval time.Duration
	Cooldown      time.Duration // minimum gap between two notifications of one kind
	BoredomAfter  time.Duration // idle time before a play nudge
}

// Scheduler sends re-engagement notifications based on pet state and time.
type Scheduler struct {
	source Source
	sender Sender
	writer Writer // nil keeps the static template body

	checkInterval time.Duration
	cooldown      time.Duration
	boredomAfter  time.Duration

	now func() time.Time

	// At most one job per kind is pending, so len(Kinds) never fills.
	queue chan job

	mu               sync.Mutex
	lastSent         map[Kind]time.Time // successful deliveries only
	pending          map[Kind]bool
	lastInteraction  time.Time
	seenInteractions int
}

type job struct {
	kind  Kind
	state pet.State
}

// NewScheduler creates a scheduler. writer may be nil.
func NewScheduler(source Source, sender Sender, writer Writer, cfg Config) *Scheduler {
	s := &Scheduler{
		source:        source,
		sender:        sender,
		writer:        writer,
		checkInterval: cfg.CheckInterval,
		cooldown:      cfg.Cooldown,
		boredomAfter:  cfg.BoredomAfter,
		now:           time.Now,
		queue:         make(chan job, len(Kinds)),
		lastSent:      make(map[Kind]time.Time),
		pending:       make(map[Kind]bool),
	}
	s.lastInteraction = s.now()
	return s
}

// Run watches the engine until ctx is cancelled or its streams close.
// Deliveries, retries included, run on a separate worker so the streams keep
// draining while a transport is slow.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.work(ctx)
	}()
	defer wg.Wait()
	defer cancel()

	transitions, cancelTransitions := s.source.Transitions()
	defer cancelTransitions()
	states, cancelStates := s.source.States()
	defer cancelStates()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-transitions:
			if !ok {
				return
			}
			s.onTransition(ctx, t)
		case st, ok := <-states:
			if !ok {
				return
			}
			s.observe(st)
		case <-ticker.C:
			s.check(ctx, s.source.Snapshot())
		}
	}
}

// observe notes when the interaction count moves so boredom can be measured.
func (s *Scheduler) observe(st pet.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.TotalInteractions != s.seenInteractions {
		s.seenInteractions = st.TotalInteractions
		s.lastInteraction = s.now()
	}
}

func (s *Scheduler) onTransition(ctx context.Context, t pet.Transition) {
	switch t.Kind {
	case pet.TransitionLevelUp:
		s.notify(ctx, KindLevelUp, t.State)
	case pet.TransitionMoodChanged:
		if t.ToMood == pet.MoodCritical {
			s.notify(ctx, KindCritical, t.State)
		}
	}
}

// check runs the periodic nudges for the current state.
func (s *Scheduler) check(ctx context.Context, st pet.State) {
	switch st.Mood {
	case pet.MoodCritical:
		s.notify(ctx, KindCritical, st)
	case pet.MoodHungry:
		s.notify(ctx, KindFeed, st)
	case pet.MoodSleepy:
		s.notify(ctx, KindSleep, st)
	case pet.MoodIdle:
		s.mu.Lock()
		bored := s.now().Sub(s.lastInteraction) > s.boredomAfter
		s.mu.Unlock()
		if bored {
			s.notify(ctx, KindPlay, st)
		}
	}
}

// notify queues kind for delivery unless it is pending or cooling down.
func (s *Scheduler) notify(_ context.Context, kind Kind, st pet.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[kind] {
		return
	}
	if last, ok := s.lastSent[kind]; ok && s.now().Sub(last) < s.cooldown {
		return
	}

	select {
	case s.queue <- job{kind: kind, state: st}:
		s.pending[kind] = true
	default:
		slog.Warn("notify: queue full, dropping", "kind", kind)
	}
}

func (s *Scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.deliver(ctx, j)
		}
	}
}

// deliver renders and sends j. The cooldown only starts on success, so a
// failed delivery is retried by the next check.
func (s *Scheduler) deliver(ctx context.Context, j job) {
	n, _ := Render(j.kind, j.state.Name)
	if s.writer != nil {
		body, err := s.writer.Compose(ctx, n, j.state)
		if err != nil {
			slog.Debug("notify: compose failed, using template", "kind", j.kind, "err", err)
		} else if body != "" {
			n.Body = body
		}
	}

	err := s.sender.Send(ctx, n)

	s.mu.Lock()
	delete(s.pending, j.kind)
	if err == nil {
		s.lastSent[j.kind] = s.now()
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("notify: delivery failed", "kind", j.kind, "err", err)
		return
	}
	slog.Info("notify: sent", "kind", j.kind, "mood", j.state.Mood)
}
