package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/hogotchi/internal/notify"
)

// Bot wraps the Discord session and manages slash commands, notifications
// and presence.
type Bot struct {
	session   *discordgo.Session
	channelID string
	ownerIDs  map[string]bool

	allowSpectatorPet bool

	router *Router

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewBot creates and configures a Discord bot (does not connect yet).
func NewBot(token, channelID string, ownerIDs []string, allowSpectatorPet bool) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("invalid bot token: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		session:           session,
		channelID:         channelID,
		ownerIDs:          ownerSet(ownerIDs),
		allowSpectatorPet: allowSpectatorPet,
	}, nil
}

func ownerSet(ids []string) map[string]bool {
	owners := make(map[string]bool, len(ids))
	for _, id := range ids {
		owners[id] = true
	}
	return owners
}

// SetRouter wires the router to handle interactions.
func (b *Bot) SetRouter(r *Router) {
	b.router = r
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onReady)
}

// Start opens the Discord connection and registers slash commands.
// Blocks until context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		slog.Error("discord: failed to open session", "err", err)
		cancel()
		return
	}

	slog.Info("discord: connected", "user", b.session.State.User.Username)

	b.registerCommands()

	<-ctx.Done()
	slog.Info("discord: shutting down")
	b.session.Close()
}

// Stop cancels a running Start.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

// ChannelID returns the configured channel ID.
func (b *Bot) ChannelID() string {
	return b.channelID
}

// Send posts a notification with a one-tap action button. It implements
// notify.Sender; it only needs the REST API, not an open gateway.
func (b *Bot) Send(ctx context.Context, n notify.Notification) error {
	msg := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{NotificationEmbed(n)},
		Components: notificationComponents(n),
	}
	if _, err := b.session.ChannelMessageSendComplex(b.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send notification: %w", err)
	}
	return nil
}

// UpdatePresence sets the bot's Discord status based on pet mood.
func (b *Bot) UpdatePresence(status, activity string) {
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: status,
		Activities: []*discordgo.Activity{
			{
				Name:  activity,
				Type:  discordgo.ActivityTypeCustom,
				State: activity,
			},
		},
	})
	if err != nil {
		slog.Debug("discord: update presence failed", "err", err)
	}
}

// IsOwner checks if a user ID is in the owner list.
func (b *Bot) IsOwner(userID string) bool {
	return b.ownerIDs[userID]
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("discord: ready", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.router == nil {
		return
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.router.HandleInteraction(i)
	case discordgo.InteractionMessageComponent:
		b.router.HandleComponent(i)
	}
}

func (b *Bot) registerCommands() {
	appID := b.session.State.User.ID
	commands := []*discordgo.ApplicationCommand{
		{Name: "status", Description: "Check your hog's stats and mood"},
		{Name: "mood", Description: "Check your hog's current mood"},
		{Name: "feed", Description: "Give your hog a snack"},
		{Name: "play", Description: "Play with your hog"},
		{Name: "sleep", Description: "Put your hog to bed"},
		{Name: "pet", Description: "Give your hog some affection"},
		{Name: "help", Description: "Show available commands"},
	}

	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			slog.Error("discord: failed to register command", "cmd", cmd.Name, "err", err)
		} else {
			slog.Info("discord: registered command", "cmd", cmd.Name)
		}
	}
}
