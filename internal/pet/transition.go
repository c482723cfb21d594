package pet

// TransitionKind identifies a notable change between two snapshots.
type TransitionKind string

const (
	TransitionMoodChanged TransitionKind = "mood_changed"
	TransitionLevelUp     TransitionKind = "level_up"
)

// Transition is an ephemeral signal produced by comparing two snapshots.
type Transition struct {
	Kind TransitionKind `json:"kind"`

	FromMood Mood `json:"from_mood,omitempty"`
	ToMood   Mood `json:"to_mood,omitempty"`

	FromLevel int `json:"from_level,omitempty"`
	ToLevel   int `json:"to_level,omitempty"`

	State State `json:"state"`
}

// moodTracker remembers the last mood that was reported so the same target
// mood is not reported twice in a row, even across unreported changes.
type moodTracker struct {
	lastReported Mood // "" until the first report
}

// detect compares prev and next and returns the transitions to report, level
// up first. It updates the tracker when a mood change is reported.
func (m *moodTracker) detect(prev, next State) []Transition {
	var out []Transition

	if next.Level > prev.Level {
		out = append(out, Transition{
			Kind:      TransitionLevelUp,
			FromLevel: prev.Level,
			ToLevel:   next.Level,
			State:     next,
		})
	}

	if next.Mood != prev.Mood && next.Mood != m.lastReported {
		m.lastReported = next.Mood
		out = append(out, Transition{
			Kind:     TransitionMoodChanged,
			FromMood: prev.Mood,
			ToMood:   next.Mood,
			State:    next,
		})
	}

	return out
}
