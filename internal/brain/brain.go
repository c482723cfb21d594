package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/hogotchi/internal/notify"
	"github.com/moorebrett0/hogotchi/internal/pet"
)

// ErrRateLimited is returned when the sliding window is full.
var ErrRateLimited = errors.New("brain: rate limited")

// maxBodyLen keeps bodies short enough for a notification shade.
const maxBodyLen = 160

// Brain writes notification copy in the pet's voice.
type Brain struct {
	provider Provider

	// Sliding-window rate limiter
	mu      sync.Mutex
	window  []time.Time
	rateMax int
	rateDur time.Duration
	now     func() time.Time
}

// Config for creating a Brain.
type Config struct {
	// Claude
	ClaudeAPIKey string
	ClaudeModel  string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Which provider to force ("claude", "gemini", or "" for auto-detect)
	Provider string

	MaxTokens  int64
	RateLimit  int
	RateWindow time.Duration
}

// New creates a Brain. Returns nil if no API key is configured.
func New(ctx context.Context, cfg Config) *Brain {
	provider := newProvider(ctx, cfg)
	if provider == nil {
		slog.Info("brain: no API key configured, using template copy")
		return nil
	}
	return newWithProvider(provider, cfg.RateLimit, cfg.RateWindow)
}

func newWithProvider(p Provider, rateMax int, rateDur time.Duration) *Brain {
	return &Brain{
		provider: p,
		rateMax:  rateMax,
		rateDur:  rateDur,
		now:      time.Now,
	}
}

// newProvider auto-detects or forces the AI provider.
func newProvider(ctx context.Context, cfg Config) Provider {
	pick := cfg.Provider

	// Auto-detect if not forced
	if pick == "" {
		switch {
		case cfg.ClaudeAPIKey != "":
			pick = "claude"
		case cfg.GeminiAPIKey != "":
			pick = "gemini"
		}
	}

	switch pick {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=claude but ANTHROPIC_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using claude", "model", cfg.ClaudeModel)
		return newClaudeProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.MaxTokens, "")
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=gemini but GOOGLE_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using gemini", "model", cfg.GeminiModel)
		p, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens, "")
		if err != nil {
			slog.Error("brain: failed to create gemini provider", "err", err)
			return nil
		}
		return p
	default:
		return nil
	}
}

// Compose returns a notification body for n written as the pet.
func (b *Brain) Compose(ctx context.Context, n notify.Notification, s pet.State) (string, error) {
	if !b.rateAllow() {
		return "", ErrRateLimited
	}

	prompt := fmt.Sprintf("Write the body of a push notification titled %q. The default text is %q. "+
		"Reply with the body only, one short sentence, no quotes.", n.Title, n.Body)

	resp, err := b.provider.Send(ctx, buildSystemPrompt(s), []Message{{Role: "user", Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("AI API error: %w", err)
	}
	return cleanBody(resp.Text), nil
}

func buildSystemPrompt(s pet.State) string {
	return fmt.Sprintf(`You are %s, a virtual pet hedgehog who lives in your owner's phone.

## Current State
- Mood: %s
- Fullness: %d/100 (0=starving, 100=stuffed)
- Happiness: %d/100
- Energy: %d/100
- Level: %d (%d interactions so far)

## Guidelines
- Stay in character as %s at all times.
- You are writing a push notification to get your owner to come back and care for you.
- Keep it under 120 characters.
- Let your current mood show.`,
		s.Name, s.Mood, s.Hunger, s.Happiness, s.Energy, s.Level, s.TotalInteractions, s.Name)
}

// cleanBody trims model output down to a single notification line.
func cleanBody(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.Trim(text, "\"'“” ")
	if r := []rune(text); len(r) > maxBodyLen {
		text = string(r[:maxBodyLen-1]) + "…"
	}
	return text
}

// --- Sliding-window rate limiter ---

func (b *Brain) rateAllow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	cutoff := now.Add(-b.rateDur)

	// Remove expired entries
	valid := b.window[:0]
	for _, t := range b.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	b.window = valid

	if len(b.window) >= b.rateMax {
		return false
	}

	b.window = append(b.window, now)
	return true
}
