package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/hogotchi/internal/pet"
)

// Pet is the part of the engine the router drives.
type Pet interface {
	Snapshot() pet.State
	ApplyAction(a pet.Action) (pet.Result, bool)
	ApplyToken(token string) (pet.Result, bool)
	OnTap() pet.Result
	States() (<-chan pet.State, func())
}

// presenter is the part of the bot the router needs; Bot satisfies it.
type presenter interface {
	IsOwner(userID string) bool
	UpdatePresence(status, activity string)
}

// Router dispatches Discord slash commands and button taps to the engine.
type Router struct {
	bot               *Bot
	out               presenter
	pet               Pet
	allowSpectatorPet bool
}

// reply is a rendered interaction response.
type reply struct {
	content   string
	embed     *discordgo.MessageEmbed
	ephemeral bool
}

// NewRouter creates a router and wires it to the bot.
func NewRouter(bot *Bot, p Pet) *Router {
	r := &Router{
		bot:               bot,
		out:               bot,
		pet:               p,
		allowSpectatorPet: bot.allowSpectatorPet,
	}
	bot.SetRouter(r)
	return r
}

// Run keeps the bot's presence in step with the pet's mood. Level-ups are
// announced by the notification scheduler. Blocks until ctx is cancelled or
// the engine closes.
func (r *Router) Run(ctx context.Context) {
	states, cancel := r.pet.States()
	defer cancel()

	var mood pet.Mood
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			if s.Mood != mood {
				mood = s.Mood
				r.out.UpdatePresence(moodToPresence(mood))
			}
		}
	}
}

// HandleInteraction dispatches a slash command interaction.
func (r *Router) HandleInteraction(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	r.respond(i, r.command(data.Name, interactionUserID(i)))
}

// HandleComponent handles a notification button tap.
func (r *Router) HandleComponent(i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	r.respond(i, r.component(data.CustomID, interactionUserID(i)))
}

func (r *Router) command(name, userID string) reply {
	isOwner := r.out.IsOwner(userID)
	s := r.pet.Snapshot()

	switch name {
	case "status":
		return reply{embed: StatusEmbed(s)}

	case "mood":
		return reply{content: fmt.Sprintf("%s %s is feeling %s", moodEmoji(s.Mood), s.Name, s.Mood)}

	case "pet":
		if !isOwner && !r.allowSpectatorPet {
			return refuse(s)
		}
		res := r.pet.OnTap()
		return reply{content: TemplateFeedback(res.State, res.Feedback)}

	case "feed", "play", "sleep":
		if !isOwner {
			return refuse(s)
		}
		a, _ := pet.ParseAction(name)
		res, ok := r.pet.ApplyAction(a)
		if !ok {
			return reply{content: fmt.Sprintf("%s isn't listening right now.", s.Name), ephemeral: true}
		}
		return reply{content: TemplateFeedback(res.State, res.Feedback)}

	case "help":
		return reply{content: TemplateHelp(s.Name)}

	default:
		return reply{content: "Unknown command."}
	}
}

func (r *Router) component(customID, userID string) reply {
	s := r.pet.Snapshot()

	token, ok := tokenFromCustomID(customID)
	if !ok {
		slog.Debug("discord: ignoring component", "custom_id", customID)
		return reply{content: "That button doesn't do anything.", ephemeral: true}
	}
	if !r.out.IsOwner(userID) {
		return refuse(s)
	}
	res, ok := r.pet.ApplyToken(token)
	if !ok {
		return reply{content: "That button doesn't do anything.", ephemeral: true}
	}
	return reply{content: TemplateFeedback(res.State, res.Feedback)}
}

func refuse(s pet.State) reply {
	return reply{
		content:   fmt.Sprintf("\U0001F994 nice try. only %s's owner can do that.", s.Name),
		ephemeral: true,
	}
}

// --- Interaction response helpers ---

func (r *Router) respond(i *discordgo.InteractionCreate, rep reply) {
	data := &discordgo.InteractionResponseData{Content: rep.content}
	if rep.embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{rep.embed}
	}
	if rep.ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		slog.Error("discord: interaction respond failed", "err", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
