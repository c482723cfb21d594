package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moorebrett0/hogotchi/internal/analytics"
	"github.com/moorebrett0/hogotchi/internal/brain"
	"github.com/moorebrett0/hogotchi/internal/config"
	"github.com/moorebrett0/hogotchi/internal/discord"
	"github.com/moorebrett0/hogotchi/internal/notify"
	"github.com/moorebrett0/hogotchi/internal/pet"
)

// NewRunCommand creates the run command.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the hog until interrupted",
		Long: `Start the pet engine, its decay loop and the reminder scheduler.

When a Discord bot token is configured the hog lives in a Discord channel:
slash commands care for it and reminders arrive with one-tap buttons.
Without a token reminders are written to the log.

Example:
  hogotchi run --config ./config.yaml
  DISCORD_BOT_TOKEN=... hogotchi run -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.Log, opts.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	sink, closeSink, err := buildSink(cfg.Analytics)
	if err != nil {
		return err
	}
	defer closeSink()

	engine := pet.New(pet.Config{
		Name:             cfg.Pet.Name,
		DecayInterval:    cfg.Pet.DecayInterval,
		SurpriseDuration: cfg.Pet.SurpriseDuration,
	}, sink)
	defer engine.Close()

	slog.Info("hogotchi: hatched", "name", cfg.Pet.Name, "state", engine.Snapshot().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		engine.Run(gctx)
		return nil
	})

	var sender notify.Sender = notify.LogSender{}
	if cfg.Discord.BotToken != "" {
		bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.ChannelID, cfg.Discord.OwnerIDs, cfg.Discord.AllowSpectatorPet)
		if err != nil {
			return err
		}
		router := discord.NewRouter(bot, engine)
		g.Go(func() error {
			bot.Start(gctx)
			return nil
		})
		g.Go(func() error {
			router.Run(gctx)
			return nil
		})
		sender = bot
	} else {
		slog.Info("hogotchi: no DISCORD_BOT_TOKEN, reminders go to the log")
	}

	if cfg.Notify.Enabled {
		var writer notify.Writer
		if b := brain.New(gctx, brainConfig(cfg)); b != nil {
			writer = b
		}
		sched := notify.NewScheduler(engine,
			notify.NewDispatcher(sender, cfg.Notify.RetryAttempts, cfg.Notify.RetryInitial),
			writer,
			notify.Config{
				CheckInterval: cfg.Notify.CheckInterval,
				Cooldown:      cfg.Notify.Cooldown,
				BoredomAfter:  cfg.Notify.BoredomAfter,
			})
		g.Go(func() error {
			sched.Run(gctx)
			return nil
		})
	}

	<-gctx.Done()
	slog.Info("hogotchi: shutting down")
	engine.Close()
	return g.Wait()
}

// buildSink wires PostHog when an API key is configured and always logs events.
func buildSink(cfg config.AnalyticsConfig) (analytics.Sink, func(), error) {
	if cfg.APIKey == "" {
		slog.Info("hogotchi: no POSTHOG_API_KEY, analytics are logged only")
		return analytics.Logger{}, func() {}, nil
	}

	ph, err := analytics.NewPostHog(analytics.PostHogConfig{
		APIKey:        cfg.APIKey,
		Host:          cfg.Host,
		DistinctID:    cfg.DistinctID,
		FlushAt:       cfg.FlushAt,
		FlushInterval: cfg.FlushInterval,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("analytics: %w", err)
	}
	slog.Info("hogotchi: posthog analytics enabled", "host", cfg.Host, "distinct_id", ph.DistinctID())

	closeFn := func() {
		if err := ph.Close(); err != nil {
			slog.Warn("analytics: posthog close failed", "err", err)
		}
	}
	return analytics.Multi{analytics.Logger{}, ph}, closeFn, nil
}

func brainConfig(cfg *config.Config) brain.Config {
	return brain.Config{
		ClaudeAPIKey: cfg.Claude.APIKey,
		ClaudeModel:  cfg.Claude.Model,
		GeminiAPIKey: cfg.Gemini.APIKey,
		GeminiModel:  cfg.Gemini.Model,
		Provider:     cfg.AI.Provider,
		MaxTokens:    cfg.Claude.MaxTokens,
		RateLimit:    cfg.Claude.RateLimit,
		RateWindow:   cfg.Claude.RateWindow,
	}
}
