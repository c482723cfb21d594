package pet

// Mood is derived from the stats and never set directly.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodHungry   Mood = "hungry"
	MoodSleepy   Mood = "sleepy"
	MoodPlayful  Mood = "playful"
	MoodCritical Mood = "critical"
	MoodIdle     Mood = "idle"
)

// Moods lists every mood in priority order.
var Moods = []Mood{MoodCritical, MoodHungry, MoodSleepy, MoodPlayful, MoodHappy, MoodIdle}

// DetermineMood returns the mood for s based on priority-ordered rules.
// Priority: Critical > Hungry > Sleepy > Playful > Happy > Idle
func DetermineMood(s State) Mood {
	// Critical: starving or miserable
	if s.Hunger < 20 || s.Happiness < 20 {
		return MoodCritical
	}

	if s.Hunger < 40 {
		return MoodHungry
	}

	if s.Energy < 30 {
		return MoodSleepy
	}

	// Playful: very happy with energy to burn
	if s.Happiness > 80 && s.Energy > 60 {
		return MoodPlayful
	}

	if s.Happiness > 60 {
		return MoodHappy
	}

	return MoodIdle
}
