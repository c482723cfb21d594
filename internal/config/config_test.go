package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so a stray .env cannot leak in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdir(t)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Max", cfg.Pet.Name)
	assert.Equal(t, 30*time.Second, cfg.Pet.DecayInterval)
	assert.Equal(t, 1, cfg.Analytics.FlushAt)
	assert.Equal(t, 5*time.Second, cfg.Analytics.FlushInterval)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
pet:
  name: Pumba
  decay_interval: 10s
analytics:
  host: http://localhost:8010
notify:
  cooldown: 5m
discord:
  channel_id: "123"
  owner_ids: ["a"]
log:
  level: debug
`)
	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	t.Setenv("DISCORD_OWNER_IDS", " x, y ,,")
	t.Setenv("POSTHOG_API_KEY", "phc_test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Pumba", cfg.Pet.Name)
	assert.Equal(t, 10*time.Second, cfg.Pet.DecayInterval)
	assert.Equal(t, "http://localhost:8010", cfg.Analytics.Host)
	assert.Equal(t, "phc_test", cfg.Analytics.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Notify.Cooldown)
	assert.Equal(t, "tok", cfg.Discord.BotToken)
	assert.Equal(t, "123", cfg.Discord.ChannelID)
	assert.Equal(t, []string{"x", "y"}, cfg.Discord.OwnerIDs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, ".env"), "HOG_NAME=\"Sonic\"\nGOOGLE_API_KEY=from-file\n")
	t.Setenv("GOOGLE_API_KEY", "from-env")
	t.Cleanup(func() { os.Unsetenv("HOG_NAME") })

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Sonic", cfg.Pet.Name)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"bad yaml", "pet: [", "parsing config"},
		{"zero decay", "pet:\n  decay_interval: 0s\n", "decay_interval"},
		{"bad log level", "log:\n  level: loud\n", "log level"},
		{"bad log format", "log:\n  format: xml\n", "log format"},
		{"token without channel", "discord:\n  bot_token: t\n  owner_ids: [a]\n", "DISCORD_CHANNEL_ID"},
		{"token without owners", "discord:\n  bot_token: t\n  channel_id: c\n", "DISCORD_OWNER_IDS"},
		{"no retries", "notify:\n  retry_attempts: 0\n", "retry_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdir(t)
			path := filepath.Join(dir, "config.yaml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
