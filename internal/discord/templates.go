package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/hogotchi/internal/notify"
	"github.com/moorebrett0/hogotchi/internal/pet"
)

// actionPrefix marks button custom IDs that carry a deep-link action token.
const actionPrefix = "action:"

// progressBar renders a visual bar like ████████░░ 78%
func progressBar(value, width int) string {
	filled := value * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled
	return fmt.Sprintf("%s%s %d%%", strings.Repeat("█", filled), strings.Repeat("░", empty), value)
}

// moodColor returns a Discord embed color for the mood.
func moodColor(mood pet.Mood) int {
	switch mood {
	case pet.MoodPlayful:
		return 0xF1A82C // posthog orange
	case pet.MoodHappy:
		return 0x57F287 // green
	case pet.MoodIdle:
		return 0x5865F2 // blurple
	case pet.MoodHungry:
		return 0xEB459E // fuchsia
	case pet.MoodSleepy:
		return 0x99AAB5 // grey
	case pet.MoodCritical:
		return 0xED4245 // red
	default:
		return 0x5865F2
	}
}

func moodEmoji(mood pet.Mood) string {
	switch mood {
	case pet.MoodHappy:
		return "\U0001F60A"
	case pet.MoodPlayful:
		return "\U0001F929"
	case pet.MoodIdle:
		return "\U0001F60C"
	case pet.MoodHungry:
		return "\U0001F60B"
	case pet.MoodSleepy:
		return "\U0001F634"
	case pet.MoodCritical:
		return "\U0001F630"
	default:
		return "\U0001F610"
	}
}

// StatusEmbed builds a rich embed for /status.
func StatusEmbed(s pet.State) *discordgo.MessageEmbed {
	stats := fmt.Sprintf(
		"happiness %s\nhunger    %s\nenergy    %s",
		progressBar(s.Happiness, 10),
		progressBar(s.Hunger, 10),
		progressBar(s.Energy, 10),
	)

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("\U0001F994 %s", s.Name),
		Description: fmt.Sprintf("mood: %s %s", moodEmoji(s.Mood), s.Mood),
		Color:       moodColor(s.Mood),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stats", Value: "```\n" + stats + "\n```", Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("level %d | %d interactions", s.Level, s.TotalInteractions),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NotificationEmbed renders a push notification as an embed.
func NotificationEmbed(n notify.Notification) *discordgo.MessageEmbed {
	color := 0xF1A82C
	if n.Kind == notify.KindCritical {
		color = 0xED4245
	}
	return &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       color,
	}
}

// notificationComponents adds a one-tap button for the notification's action.
func notificationComponents(n notify.Notification) []discordgo.MessageComponent {
	if n.Action == "" {
		return nil
	}
	label, emoji := actionLabel(n.Action)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.PrimaryButton,
					CustomID: actionPrefix + n.Action,
					Emoji:    &discordgo.ComponentEmoji{Name: emoji},
				},
			},
		},
	}
}

func actionLabel(token string) (label, emoji string) {
	switch token {
	case "feed":
		return "Feed", "\U0001F34E"
	case "play":
		return "Play", "\U0001F3BE"
	case "sleep":
		return "Sleep", "\U0001F6CF"
	default:
		return token, "❓"
	}
}

// tokenFromCustomID extracts the action token from a button custom ID.
func tokenFromCustomID(id string) (string, bool) {
	if !strings.HasPrefix(id, actionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(id, actionPrefix), true
}

func TemplateFeedback(s pet.State, feedback string) string {
	return fmt.Sprintf("%s %s\nMood: %s | Level %d", moodEmoji(s.Mood), feedback, s.Mood, s.Level)
}

func TemplateHelp(name string) string {
	if name == "" {
		name = "your hog"
	}
	return fmt.Sprintf("**Hogotchi Commands**\n\n"+
		"`/status` — See %s's stats and mood\n"+
		"`/mood` — Current mood\n"+
		"`/feed` — Give %s a snack\n"+
		"`/play` — Play with %s\n"+
		"`/sleep` — Put %s to bed\n"+
		"`/pet` — Give %s some love\n"+
		"`/help` — This message\n\n"+
		"Tap the buttons on reminders to help %s right away!", name, name, name, name, name, name)
}

func moodToPresence(mood pet.Mood) (status, activity string) {
	switch mood {
	case pet.MoodPlayful:
		return "online", "wants to play!"
	case pet.MoodHappy:
		return "online", "feeling great!"
	case pet.MoodIdle:
		return "online", "just vibing"
	case pet.MoodHungry:
		return "idle", "getting hungry..."
	case pet.MoodSleepy:
		return "idle", "zzz"
	case pet.MoodCritical:
		return "dnd", "needs help NOW"
	default:
		return "online", "just vibing"
	}
}
