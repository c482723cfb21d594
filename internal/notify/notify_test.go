package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/hogotchi/internal/pet"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []Notification
	fails int // fail this many sends before succeeding
}

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("transport down")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) kinds() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Kind
	for _, n := range f.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fakeWriter struct {
	body string
	err  error
}

func (w fakeWriter) Compose(context.Context, Notification, pet.State) (string, error) {
	return w.body, w.err
}

func TestRender(t *testing.T) {
	n, ok := Render(KindFeed, "Max")
	require.True(t, ok)
	assert.Equal(t, Notification{
		Kind:   KindFeed,
		Title:  "Max is hungry!",
		Body:   "Feed your hog before it's too late!",
		Action: "feed",
	}, n)

	n, ok = Render(KindLevelUp, "Max")
	require.True(t, ok)
	assert.Equal(t, "Level Up!", n.Title)
	assert.Equal(t, "Max reached a new level! Keep caring for your hog!", n.Body)
	assert.Empty(t, n.Action)

	_, ok = Render("dance", "Max")
	assert.False(t, ok)
}

// Every action a notification offers must be accepted by the engine.
func TestRender_ActionsAreEngineTokens(t *testing.T) {
	for _, k := range Kinds {
		n, _ := Render(k, "Max")
		if n.Action == "" {
			continue
		}
		_, ok := pet.ActionForToken(n.Action)
		assert.True(t, ok, "kind %s", k)
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("LevelUp")
	assert.True(t, ok)
	assert.Equal(t, KindLevelUp, k)

	_, ok = ParseKind("all")
	assert.False(t, ok)
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	fs := &fakeSender{fails: 2}
	d := NewDispatcher(fs, 3, time.Millisecond)

	n, _ := Render(KindPlay, "Max")
	require.NoError(t, d.Send(context.Background(), n))
	assert.Equal(t, []Kind{KindPlay}, fs.kinds())
}

func TestDispatcher_GivesUp(t *testing.T) {
	fs := &fakeSender{fails: 5}
	d := NewDispatcher(fs, 2, time.Millisecond)

	n, _ := Render(KindSleep, "Max")
	err := d.Send(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send sleep notification")
	assert.Empty(t, fs.kinds())
}

func newTestScheduler(sender Sender, writer Writer) (*Scheduler, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(nil, sender, writer, Config{
		CheckInterval: time.Minute,
		Cooldown:      30 * time.Minute,
		BoredomAfter:  2 * time.Hour,
	})
	s.now = func() time.Time { return now }
	s.lastInteraction = now
	return s, &now
}

// flush delivers every queued job on the calling goroutine.
func flush(s *Scheduler) {
	for {
		select {
		case j := <-s.queue:
			s.deliver(context.Background(), j)
		default:
			return
		}
	}
}

func TestScheduler_CheckByMood(t *testing.T) {
	tests := []struct {
		mood pet.Mood
		want []Kind
	}{
		{pet.MoodCritical, []Kind{KindCritical}},
		{pet.MoodHungry, []Kind{KindFeed}},
		{pet.MoodSleepy, []Kind{KindSleep}},
		{pet.MoodHappy, nil},
		{pet.MoodPlayful, nil},
		{pet.MoodIdle, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.mood), func(t *testing.T) {
			fs := &fakeSender{}
			s, _ := newTestScheduler(fs, nil)
			s.check(context.Background(), pet.State{Name: "Max", Mood: tt.mood})
			flush(s)
			assert.Equal(t, tt.want, fs.kinds())
		})
	}
}

func TestScheduler_Cooldown(t *testing.T) {
	fs := &fakeSender{}
	s, now := newTestScheduler(fs, nil)
	hungry := pet.State{Name: "Max", Mood: pet.MoodHungry}

	s.check(context.Background(), hungry)
	flush(s)
	*now = now.Add(10 * time.Minute)
	s.check(context.Background(), hungry)
	flush(s)
	assert.Equal(t, []Kind{KindFeed}, fs.kinds())

	*now = now.Add(25 * time.Minute)
	s.check(context.Background(), hungry)
	flush(s)
	assert.Equal(t, []Kind{KindFeed, KindFeed}, fs.kinds())
}

func TestScheduler_Boredom(t *testing.T) {
	fs := &fakeSender{}
	s, now := newTestScheduler(fs, nil)
	idle := pet.State{Name: "Max", Mood: pet.MoodIdle, TotalInteractions: 3}

	*now = now.Add(90 * time.Minute)
	s.check(context.Background(), idle)
	flush(s)
	assert.Empty(t, fs.kinds())

	*now = now.Add(time.Hour)
	s.check(context.Background(), idle)
	flush(s)
	assert.Equal(t, []Kind{KindPlay}, fs.kinds())

	// An interaction resets the clock.
	*now = now.Add(time.Hour)
	s.observe(idle)
	*now = now.Add(time.Hour)
	s.check(context.Background(), idle)
	flush(s)
	assert.Equal(t, []Kind{KindPlay}, fs.kinds())
}

func TestScheduler_Transitions(t *testing.T) {
	fs := &fakeSender{}
	s, _ := newTestScheduler(fs, nil)
	ctx := context.Background()

	s.onTransition(ctx, pet.Transition{Kind: pet.TransitionMoodChanged, ToMood: pet.MoodHungry})
	flush(s)
	assert.Empty(t, fs.kinds())

	s.onTransition(ctx, pet.Transition{Kind: pet.TransitionMoodChanged, ToMood: pet.MoodCritical, State: pet.State{Name: "Max"}})
	flush(s)
	s.onTransition(ctx, pet.Transition{Kind: pet.TransitionLevelUp, ToLevel: 2, State: pet.State{Name: "Max"}})
	flush(s)
	assert.Equal(t, []Kind{KindCritical, KindLevelUp}, fs.kinds())
	assert.Equal(t, "Max needs you NOW!", fs.sent[0].Title)
}

func TestScheduler_Writer(t *testing.T) {
	fs := &fakeSender{}
	s, _ := newTestScheduler(fs, fakeWriter{body: "feed me, human"})
	s.check(context.Background(), pet.State{Name: "Max", Mood: pet.MoodHungry})
	flush(s)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, "feed me, human", fs.sent[0].Body)

	fs = &fakeSender{}
	s, _ = newTestScheduler(fs, fakeWriter{err: errors.New("rate limited")})
	s.check(context.Background(), pet.State{Name: "Max", Mood: pet.MoodHungry})
	flush(s)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, "Feed your hog before it's too late!", fs.sent[0].Body)
}

// readySource signals once the scheduler has subscribed to transitions.
type readySource struct {
	*pet.Engine
	ready chan struct{}
}

func (r readySource) Transitions() (<-chan pet.Transition, func()) {
	ch, cancel := r.Engine.Transitions()
	close(r.ready)
	return ch, cancel
}

func TestScheduler_RunWithEngine(t *testing.T) {
	e := pet.New(pet.Config{Name: "Max", DecayInterval: time.Hour}, nil)
	defer e.Close()

	fs := &fakeSender{}
	src := readySource{Engine: e, ready: make(chan struct{})}
	s := NewScheduler(src, fs, nil, Config{
		CheckInterval: time.Hour,
		Cooldown:      time.Hour,
		BoredomAfter:  time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	<-src.ready

	// 16 ticks take hunger from 50 to 18: critical.
	for i := 0; i < 16; i++ {
		e.Tick()
	}
	require.Eventually(t, func() bool {
		return len(fs.kinds()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, KindCritical, fs.kinds()[0])

	for i := 0; i < 10; i++ {
		e.OnTap()
	}
	require.Eventually(t, func() bool {
		return len(fs.kinds()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, KindLevelUp, fs.kinds()[1])

	cancel()
	<-done
}

func TestScheduler_FailedDeliveryKeepsNoCooldown(t *testing.T) {
	fs := &fakeSender{fails: 1}
	s, _ := newTestScheduler(NewDispatcher(fs, 1, time.Millisecond), nil)
	critical := pet.State{Name: "Max", Mood: pet.MoodCritical}

	s.check(context.Background(), critical)
	flush(s)
	assert.Empty(t, fs.kinds())

	// Same instant: a failed send must not have started the cooldown.
	s.check(context.Background(), critical)
	flush(s)
	assert.Equal(t, []Kind{KindCritical}, fs.kinds())
}

func TestScheduler_PendingKindIsNotQueuedTwice(t *testing.T) {
	fs := &fakeSender{}
	s, _ := newTestScheduler(fs, nil)
	hungry := pet.State{Name: "Max", Mood: pet.MoodHungry}

	s.check(context.Background(), hungry)
	s.check(context.Background(), hungry)
	flush(s)
	assert.Equal(t, []Kind{KindFeed}, fs.kinds())
}

// blockingSender holds every Send until release is closed.
type blockingSender struct {
	fakeSender
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSender) Send(ctx context.Context, n Notification) error {
	b.entered <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.fakeSender.Send(ctx, n)
}

// chanSource feeds transitions through an unbuffered channel, so a send only
// completes once the scheduler loop has received it.
type chanSource struct {
	transitions chan pet.Transition
}

func (c chanSource) Snapshot() pet.State { return pet.State{Name: "Max", Mood: pet.MoodHappy} }

func (c chanSource) States() (<-chan pet.State, func()) { return nil, func() {} }

func (c chanSource) Transitions() (<-chan pet.Transition, func()) { return c.transitions, func() {} }

func TestScheduler_SlowDeliveryDoesNotStallStreams(t *testing.T) {
	bs := &blockingSender{entered: make(chan struct{}, 4), release: make(chan struct{})}
	src := chanSource{transitions: make(chan pet.Transition)}
	s := NewScheduler(src, bs, nil, Config{
		CheckInterval: time.Hour,
		Cooldown:      time.Hour,
		BoredomAfter:  time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	hog := pet.State{Name: "Max"}
	src.transitions <- pet.Transition{Kind: pet.TransitionMoodChanged, ToMood: pet.MoodCritical, State: hog}
	<-bs.entered

	// The critical send is stuck; the loop must still take the next transition.
	select {
	case src.transitions <- pet.Transition{Kind: pet.TransitionLevelUp, ToLevel: 2, State: hog}:
	case <-time.After(time.Second):
		t.Fatal("scheduler loop blocked behind a slow delivery")
	}

	close(bs.release)
	require.Eventually(t, func() bool {
		return len(bs.kinds()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Kind{KindCritical, KindLevelUp}, bs.kinds())

	cancel()
	<-done
}
