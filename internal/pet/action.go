package pet

import (
	"fmt"
	"strings"
)

// Action is a discrete user-initiated event. It carries no payload.
type Action string

const (
	ActionFeed  Action = "feed"
	ActionPlay  Action = "play"
	ActionSleep Action = "sleep"
	ActionPet   Action = "pet"
)

// Actions lists every valid action.
var Actions = []Action{ActionFeed, ActionPlay, ActionSleep, ActionPet}

type effect struct {
	hunger, happiness, energy int
	feedback                  string // format verb receives the pet's name
}

var effects = map[Action]effect{
	ActionFeed:  {hunger: 30, happiness: 5, feedback: "%s loves the snacks!"},
	ActionPlay:  {hunger: -5, happiness: 25, energy: -15, feedback: "%s had fun playing!"},
	ActionSleep: {hunger: -10, energy: 40, feedback: "%s is well rested!"},
	ActionPet:   {happiness: 10, feedback: "%s feels loved!"},
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	_, ok := effects[a]
	return ok
}

// Feedback returns the message shown after a is applied to a pet named name.
func (a Action) Feedback(name string) string {
	e, ok := effects[a]
	if !ok {
		return ""
	}
	return fmt.Sprintf(e.feedback, name)
}

// ParseAction maps any action name (case-insensitive) to an Action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", false
	}
	return a, true
}

// notificationActions is the deep-link surface. Pet is deliberately absent:
// notifications only ever offer feed, play and sleep.
var notificationActions = map[string]Action{
	"feed":  ActionFeed,
	"play":  ActionPlay,
	"sleep": ActionSleep,
}

// ActionForToken maps a notification token to an Action.
func ActionForToken(token string) (Action, bool) {
	a, ok := notificationActions[strings.ToLower(token)]
	return a, ok
}
