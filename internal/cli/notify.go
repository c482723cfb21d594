package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/moorebrett0/hogotchi/internal/config"
	"github.com/moorebrett0/hogotchi/internal/discord"
	"github.com/moorebrett0/hogotchi/internal/notify"
)

// NotifyOptions holds flags for the notify command.
type NotifyOptions struct {
	Delay time.Duration
}

// allKinds is the sequence sent by "notify all".
var allKinds = []notify.Kind{notify.KindFeed, notify.KindPlay, notify.KindSleep}

// NewNotifyCommand creates the notify command.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NotifyOptions{}

	cmd := &cobra.Command{
		Use:   "notify <kind|all|list>",
		Short: "Send a test notification",
		Long: `Send one of the reminder templates right now.

Kinds: feed, play, sleep, critical, levelup.
"all" sends feed, play and sleep with --delay between them.
"list" prints the templates without sending anything.

Notifications go to the configured Discord channel, or to the log when no
bot token is set.

Example:
  hogotchi notify feed
  hogotchi notify all --delay 2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.Log, rootOpts.Verbose)

			if args[0] == "list" {
				return listTemplates(cmd.OutOrStdout(), rootOpts.Format, cfg.Pet.Name)
			}

			kinds, err := kindsFor(args[0])
			if err != nil {
				return err
			}

			var sender notify.Sender = notify.LogSender{}
			if cfg.Discord.BotToken != "" {
				bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.ChannelID, cfg.Discord.OwnerIDs, cfg.Discord.AllowSpectatorPet)
				if err != nil {
					return err
				}
				sender = bot
			}
			d := notify.NewDispatcher(sender, cfg.Notify.RetryAttempts, cfg.Notify.RetryInitial)
			return sendAll(cmd.Context(), cmd.OutOrStdout(), d, cfg.Pet.Name, kinds, opts.Delay)
		},
	}

	cmd.Flags().DurationVar(&opts.Delay, "delay", 5*time.Second, "pause between notifications for \"all\"")

	return cmd
}

func kindsFor(arg string) ([]notify.Kind, error) {
	if arg == "all" {
		return allKinds, nil
	}
	k, ok := notify.ParseKind(arg)
	if !ok {
		return nil, fmt.Errorf("unknown notification %q: must be one of %v, all or list", arg, notify.Kinds)
	}
	return []notify.Kind{k}, nil
}

func sendAll(ctx context.Context, out io.Writer, sender notify.Sender, name string, kinds []notify.Kind, delay time.Duration) error {
	for i, k := range kinds {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		n, _ := notify.Render(k, name)
		if err := sender.Send(ctx, n); err != nil {
			return err
		}
		fmt.Fprintf(out, "sent %s: %s\n", n.Kind, n.Title)
	}
	return nil
}

func listTemplates(out io.Writer, format, name string) error {
	if format == "json" {
		var all []notify.Notification
		for _, k := range notify.Kinds {
			n, _ := notify.Render(k, name)
			all = append(all, n)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}

	for _, k := range notify.Kinds {
		n, _ := notify.Render(k, name)
		action := n.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(out, "%-9s %-6s %s | %s\n", n.Kind, action, n.Title, n.Body)
	}
	return nil
}
