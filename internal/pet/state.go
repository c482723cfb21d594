package pet

import "fmt"

// Stat bounds. Every stat is clamped into [MinStat, MaxStat] on each mutation.
const (
	MinStat = 0
	MaxStat = 100
)

// Starting stats for a freshly hatched hog.
const (
	DefaultName      = "Max"
	DefaultHappiness = 70
	DefaultHunger    = 50
	DefaultEnergy    = 80
)

// Decay applied on every tick.
const (
	DecayHunger    = 2
	DecayEnergy    = 1
	DecayHappiness = 1
)

// InteractionsPerLevel is how many accepted actions it takes to gain a level.
const InteractionsPerLevel = 10

// State is an immutable snapshot of the pet. The engine replaces it wholesale
// on every update; callers only ever see copies.
type State struct {
	Name string `json:"name"`

	// Stats (0–100). Hunger is a fullness meter: 0=starving, 100=stuffed.
	Happiness int `json:"happiness"`
	Hunger    int `json:"hunger"`
	Energy    int `json:"energy"`

	Mood              Mood `json:"mood"`
	Level             int  `json:"level"`
	TotalInteractions int  `json:"total_interactions"`
}

// NewState creates the default state for a pet called name.
func NewState(name string) State {
	if name == "" {
		name = DefaultName
	}
	s := State{
		Name:      name,
		Happiness: DefaultHappiness,
		Hunger:    DefaultHunger,
		Energy:    DefaultEnergy,
		Level:     1,
	}
	s.Mood = DetermineMood(s)
	return s
}

// decayed returns the state after one tick of decay.
func (s State) decayed() State {
	s.Hunger = clamp(s.Hunger - DecayHunger)
	s.Energy = clamp(s.Energy - DecayEnergy)
	s.Happiness = clamp(s.Happiness - DecayHappiness)
	s.Mood = DetermineMood(s)
	return s
}

// applied returns the state after action a. The caller has already checked
// that a is valid.
func (s State) applied(a Action) State {
	e := effects[a]
	s.Hunger = clamp(s.Hunger + e.hunger)
	s.Happiness = clamp(s.Happiness + e.happiness)
	s.Energy = clamp(s.Energy + e.energy)
	s.TotalInteractions++

	if lvl := LevelFor(s.TotalInteractions); lvl > s.Level {
		s.Level = lvl
	}
	s.Mood = DetermineMood(s)
	return s
}

// LevelFor returns the level reached after n accepted interactions.
func LevelFor(n int) int {
	if n < 0 {
		n = 0
	}
	return 1 + n/InteractionsPerLevel
}

func (s State) String() string {
	return fmt.Sprintf("%s [%s] hunger=%d happiness=%d energy=%d level=%d interactions=%d",
		s.Name, s.Mood, s.Hunger, s.Happiness, s.Energy, s.Level, s.TotalInteractions)
}

func clamp(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}
