package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
)

// setRequiredEnv sets the minimum environment for a valid config
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "discord-token")
	t.Setenv("OPENAI_KEY", "sk-test")
	t.Setenv("PIPEDREAM_CLIENT_ID", "pd-id")
	t.Setenv("PIPEDREAM_CLIENT_SECRET", "pd-secret")
	t.Setenv("PIPEDREAM_PROJECT_ID", "proj_1")
	t.Setenv("PIPEDREAM_ENVIRONMENT", "development")
	t.Setenv("REPLIES_CONFIG_PATH", writeReplies(t, ""))
}

func writeReplies(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "pmpt_6876d1b03edc8193ad6b5684bae0af8d0820aa045d9844f4", cfg.OpenAI.PromptID)
	assert.Equal(t, "7", cfg.OpenAI.PromptVersion)
	assert.Equal(t, "responses", cfg.OpenAI.Backend)
	assert.Equal(t, []string{"!", "?"}, cfg.Relay.IgnorePrefixes)
	assert.Equal(t, []string{"663843965325410319"}, cfg.Relay.AllowedChannels)
	assert.Equal(t, "!", cfg.Relay.CommandPrefix)
	assert.Equal(t, 2000, cfg.Relay.MaxResponseLength)
	assert.Equal(t, 60*time.Second, cfg.Relay.CompletionTimeout)
	assert.Equal(t, "brad-test", cfg.Pipedream.ExternalUserID)
	assert.Equal(t, "google_docs", cfg.Pipedream.AppSlug)
	assert.Equal(t, "https://remote.mcp.pipedream.net", cfg.Pipedream.MCPURL)
	assert.Equal(t, "127.0.0.1:9876", cfg.AdminAddr)
	assert.Equal(t, ":memory:", cfg.StoreDSN)
	assert.True(t, cfg.MCPEnabled())
	assert.Len(t, cfg.Relay.AvailableModels, 6)
	assert.Equal(t, defaultSystemMessage, cfg.OpenAI.SystemMessage)
}

func TestLoadFromEnv_Aliases(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("OPENAI_KEY", "")
	t.Setenv("TOKEN", "alias-token")
	t.Setenv("OPENAI_API_KEY", "sk-alias")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "alias-token", cfg.Discord.Token)
	assert.Equal(t, "sk-alias", cfg.OpenAI.APIKey)
}

func TestLoadFromEnv_Lists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_CHANNELS", "111,222")
	t.Setenv("IGNORE_PREFIXES", "!,?,/")
	t.Setenv("SCOPE_MODE", "channel_user")
	t.Setenv("BUSY_POLICY", "drop")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	policy := cfg.ToFilterPolicy()
	assert.True(t, policy.IsAllowedChannel("222"))
	assert.Equal(t, []string{"!", "?", "/"}, policy.IgnorePrefixes)

	conv := cfg.ToConversationConfig()
	assert.Equal(t, domain.ScopeChannelUser, conv.ScopeMode)
	assert.Equal(t, usecase.BusyDrop, conv.BusyPolicy)
	assert.Equal(t, "7", conv.Prompt.Version)
}

func TestLoadFromEnv_BadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMPLETION_TIMEOUT", "soon")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("PIPEDREAM_CLIENT_SECRET", "")
	t.Setenv("SCOPE_MODE", "guild")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "DISCORD_TOKEN", cfgErr.Field)
	assert.Contains(t, err.Error(), "PIPEDREAM_CLIENT_ID/PIPEDREAM_CLIENT_SECRET")
	assert.Contains(t, err.Error(), "SCOPE_MODE")
}

func TestValidate_ChatBackendSkipsPipedream(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMPLETION_BACKEND", "chat")
	t.Setenv("PIPEDREAM_CLIENT_ID", "")
	t.Setenv("PIPEDREAM_CLIENT_SECRET", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.MCPEnabled())

	opts := cfg.ToDataOptions()
	assert.Equal(t, "chat", opts.Backend)
	assert.Equal(t, 1000, opts.Chat.MaxTokens)
	assert.InDelta(t, 0.7, opts.Chat.Temperature, 0.001)
}

func TestRedacted(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	red := cfg.Redacted()
	assert.Equal(t, redactedValue, red.Discord.Token)
	assert.Equal(t, redactedValue, red.OpenAI.APIKey)
	assert.Equal(t, redactedValue, red.Pipedream.ClientSecret)
	assert.Equal(t, "pd-id", red.Pipedream.ClientID)

	// The original is untouched
	assert.Equal(t, "discord-token", cfg.Discord.Token)
}
