// Package notify sends re-engagement notifications about the pet. Every
// notification may carry an action token; tapping it feeds the token back
// into the engine through HandleActionToken.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Kind identifies a notification template.
type Kind string

const (
	KindFeed     Kind = "feed"
	KindPlay     Kind = "play"
	KindSleep    Kind = "sleep"
	KindCritical Kind = "critical"
	KindLevelUp  Kind = "levelup"
)

// Kinds lists every template in display order.
var Kinds = []Kind{KindFeed, KindPlay, KindSleep, KindCritical, KindLevelUp}

// Notification is a rendered push message.
type Notification struct {
	Kind   Kind
	Title  string
	Body   string
	Action string // deep-link token, empty for informational messages
}

type template struct {
	title, body, action string
}

// %s in title or body is replaced with the pet's name.
var templates = map[Kind]template{
	KindFeed:     {"%s is hungry!", "Feed your hog before it's too late!", "feed"},
	KindPlay:     {"Playtime?", "%s wants to play with you!", "play"},
	KindSleep:    {"Sleepy hog", "%s is getting tired...", "sleep"},
	KindCritical: {"%s needs you NOW!", "Your hog is in critical condition!", "feed"},
	KindLevelUp:  {"Level Up!", "%s reached a new level! Keep caring for your hog!", ""},
}

// Render fills in the template for kind.
func Render(kind Kind, name string) (Notification, bool) {
	t, ok := templates[kind]
	if !ok {
		return Notification{}, false
	}
	return Notification{
		Kind:   kind,
		Title:  withName(t.title, name),
		Body:   withName(t.body, name),
		Action: t.action,
	}, true
}

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := templates[k]
	return k, ok
}

func withName(s, name string) string {
	if !strings.Contains(s, "%s") {
		return s
	}
	return fmt.Sprintf(s, name)
}

// Sender delivers a notification to the user.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. Used when no transport is set up.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	slog.Info("notify: notification", "kind", n.Kind, "title", n.Title, "body", n.Body, "action", n.Action)
	return nil
}
