package conf

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
	"github.com/relaykit/discord-mcp-relay/internal/data"
	"github.com/relaykit/discord-mcp-relay/internal/infra/pipedream"
	"github.com/relaykit/discord-mcp-relay/internal/service"
)

const redactedValue = "[redacted]"

// Config represents application configuration
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Pipedream PipedreamConfig `yaml:"pipedream"`
	Relay     RelayConfig     `yaml:"relay"`

	StoreDSN          string `env:"STORE_DSN" envDefault:":memory:" yaml:"store_dsn"`
	AdminAddr         string `env:"ADMIN_ADDR" envDefault:"127.0.0.1:9876" yaml:"admin_addr"`
	RepliesConfigPath string `env:"REPLIES_CONFIG_PATH" yaml:"replies_config_path"`

	// Replies configuration (loaded from YAML)
	Replies *RepliesConfig `env:"-" yaml:"replies,omitempty"`

	// Debug mode
	Debug bool `env:"DEBUG" yaml:"debug"`
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token      string `env:"DISCORD_TOKEN" yaml:"token"`
	TokenAlias string `env:"TOKEN" yaml:"-"`
}

// OpenAIConfig contains completion endpoint configuration
type OpenAIConfig struct {
	APIKey        string  `env:"OPENAI_KEY" yaml:"api_key"`
	APIKeyAlias   string  `env:"OPENAI_API_KEY" yaml:"-"`
	BaseURL       string  `env:"OPENAI_BASE_URL" yaml:"base_url,omitempty"`
	Model         string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini" yaml:"model"`
	PromptID      string  `env:"OPENAI_PROMPT_ID" envDefault:"pmpt_6876d1b03edc8193ad6b5684bae0af8d0820aa045d9844f4" yaml:"prompt_id"`
	PromptVersion string  `env:"OPENAI_PROMPT_VERSION" envDefault:"7" yaml:"prompt_version"`
	Backend       string  `env:"COMPLETION_BACKEND" envDefault:"responses" yaml:"backend"`
	SystemMessage string  `env:"SYSTEM_MESSAGE" yaml:"system_message,omitempty"`
	MaxTokens     int     `env:"MAX_TOKENS" envDefault:"1000" yaml:"max_tokens"`
	Temperature   float32 `env:"TEMPERATURE" envDefault:"0.7" yaml:"temperature"`
}

// PipedreamConfig contains MCP tool gateway configuration
type PipedreamConfig struct {
	Enabled        bool   `env:"MCP_ENABLED" envDefault:"true" yaml:"enabled"`
	ClientID       string `env:"PIPEDREAM_CLIENT_ID" yaml:"client_id"`
	ClientSecret   string `env:"PIPEDREAM_CLIENT_SECRET" yaml:"client_secret"`
	ProjectID      string `env:"PIPEDREAM_PROJECT_ID" yaml:"project_id"`
	Environment    string `env:"PIPEDREAM_ENVIRONMENT" yaml:"environment"`
	ExternalUserID string `env:"PIPEDREAM_EXTERNAL_USER_ID" envDefault:"brad-test" yaml:"external_user_id"`
	AppSlug        string `env:"PIPEDREAM_APP_SLUG" envDefault:"google_docs" yaml:"app_slug"`
	MCPURL         string `env:"PIPEDREAM_MCP_URL" envDefault:"https://remote.mcp.pipedream.net" yaml:"mcp_url"`
	TokenURL       string `env:"PIPEDREAM_TOKEN_URL" envDefault:"https://api.pipedream.com/v1/oauth/token" yaml:"token_url"`
}

// RelayConfig contains message handling configuration
type RelayConfig struct {
	IgnorePrefixes    []string      `env:"IGNORE_PREFIXES" envDefault:"!,?" envSeparator:"," yaml:"ignore_prefixes"`
	AllowedChannels   []string      `env:"ALLOWED_CHANNELS" envDefault:"663843965325410319" envSeparator:"," yaml:"allowed_channels"`
	CommandPrefix     string        `env:"COMMAND_PREFIX" envDefault:"!" yaml:"command_prefix"`
	AvailableModels   []string      `env:"AVAILABLE_MODELS" envDefault:"Claude-Sonnet-4,Claude-Opus-4.1,GPT-4.1,Gemini-2.5-Pro,Llama-3.1-405B,Grok-4" envSeparator:"," yaml:"available_models"`
	MaxResponseLength int           `env:"MAX_RESPONSE_LENGTH" envDefault:"2000" yaml:"max_response_length"`
	ScopeMode         string        `env:"SCOPE_MODE" envDefault:"channel" yaml:"scope_mode"`
	BusyPolicy        string        `env:"BUSY_POLICY" envDefault:"queue" yaml:"busy_policy"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s" yaml:"completion_timeout"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// Accepted aliases
	if cfg.Discord.Token == "" {
		cfg.Discord.Token = cfg.Discord.TokenAlias
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = cfg.OpenAI.APIKeyAlias
	}

	// Load replies from YAML
	replies, err := LoadRepliesConfig(cfg.RepliesConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Replies = replies

	// Env overrides the file
	if cfg.OpenAI.SystemMessage == "" {
		cfg.OpenAI.SystemMessage = replies.SystemMessage
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Discord.Token == "" {
		errs = append(errs, &ConfigError{Field: "DISCORD_TOKEN", Message: "required"})
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, &ConfigError{Field: "OPENAI_KEY", Message: "required"})
	}

	switch c.OpenAI.Backend {
	case data.BackendResponses, data.BackendChat:
	default:
		errs = append(errs, &ConfigError{Field: "COMPLETION_BACKEND", Message: fmt.Sprintf("unknown backend %q", c.OpenAI.Backend)})
	}

	if c.MCPEnabled() {
		p := c.Pipedream
		if p.ClientID == "" || p.ClientSecret == "" {
			errs = append(errs, &ConfigError{Field: "PIPEDREAM_CLIENT_ID/PIPEDREAM_CLIENT_SECRET", Message: "required when MCP is enabled"})
		}
		if p.ProjectID == "" || p.Environment == "" {
			errs = append(errs, &ConfigError{Field: "PIPEDREAM_PROJECT_ID/PIPEDREAM_ENVIRONMENT", Message: "required when MCP is enabled"})
		}
		if p.AppSlug == "" {
			errs = append(errs, &ConfigError{Field: "PIPEDREAM_APP_SLUG", Message: "required when MCP is enabled"})
		}
	}

	if _, err := domain.ParseScopeMode(c.Relay.ScopeMode); err != nil {
		errs = append(errs, &ConfigError{Field: "SCOPE_MODE", Message: err.Error()})
	}
	if _, err := usecase.ParseBusyPolicy(c.Relay.BusyPolicy); err != nil {
		errs = append(errs, &ConfigError{Field: "BUSY_POLICY", Message: err.Error()})
	}
	if c.Relay.MaxResponseLength <= 0 {
		errs = append(errs, &ConfigError{Field: "MAX_RESPONSE_LENGTH", Message: "must be positive"})
	}
	if c.Relay.CompletionTimeout <= 0 {
		errs = append(errs, &ConfigError{Field: "COMPLETION_TIMEOUT", Message: "must be positive"})
	}

	return errors.Join(errs...)
}

// MCPEnabled reports whether the tool gateway is attached.
// The chat backend cannot carry remote tools.
func (c *Config) MCPEnabled() bool {
	return c.Pipedream.Enabled && c.OpenAI.Backend == data.BackendResponses
}

// ToFilterPolicy converts to the domain filter policy
func (c *Config) ToFilterPolicy() domain.FilterPolicy {
	return domain.NewFilterPolicy(c.Relay.IgnorePrefixes, c.Relay.AllowedChannels)
}

// ToConversationConfig converts to conversation configuration.
// Call Validate first, unparseable modes fall back to their defaults.
func (c *Config) ToConversationConfig() usecase.ConversationConfig {
	mode, _ := domain.ParseScopeMode(c.Relay.ScopeMode)
	policy, _ := usecase.ParseBusyPolicy(c.Relay.BusyPolicy)
	return usecase.ConversationConfig{
		Prompt: domain.PromptRef{
			ID:      c.OpenAI.PromptID,
			Version: c.OpenAI.PromptVersion,
		},
		Model:      c.OpenAI.Model,
		ScopeMode:  mode,
		BusyPolicy: policy,
	}
}

// ToCommandConfig converts to command configuration
func (c *Config) ToCommandConfig() usecase.CommandConfig {
	replies := usecase.DefaultReplyConfig
	if c.Replies != nil {
		replies = c.Replies.ToReplyConfig()
	}
	return usecase.CommandConfig{
		Prefix:          c.Relay.CommandPrefix,
		AvailableModels: c.Relay.AvailableModels,
		Replies:         replies,
	}
}

// ToRelayConfig converts to relay service configuration
func (c *Config) ToRelayConfig() service.RelayConfig {
	return service.RelayConfig{
		MaxReplyLength: c.Relay.MaxResponseLength,
		TurnTimeout:    c.Relay.CompletionTimeout,
	}
}

// ToClientConfig converts to Pipedream client configuration
func (c *PipedreamConfig) ToClientConfig() pipedream.Config {
	return pipedream.Config{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		ProjectID:      c.ProjectID,
		Environment:    c.Environment,
		ExternalUserID: c.ExternalUserID,
		AppSlug:        c.AppSlug,
		MCPURL:         c.MCPURL,
		TokenURL:       c.TokenURL,
	}
}

// ToDataOptions converts to repository options
func (c *Config) ToDataOptions() data.Options {
	return data.Options{
		Backend: c.OpenAI.Backend,
		APIKey:  c.OpenAI.APIKey,
		BaseURL: c.OpenAI.BaseURL,
		Chat: data.ChatOptions{
			SystemMessage: c.OpenAI.SystemMessage,
			MaxTokens:     c.OpenAI.MaxTokens,
			Temperature:   c.OpenAI.Temperature,
		},
		StoreDSN: c.StoreDSN,
	}
}

// Redacted returns a copy with secrets masked
func (c *Config) Redacted() *Config {
	out := *c
	out.Discord.Token = redact(c.Discord.Token)
	out.Discord.TokenAlias = ""
	out.OpenAI.APIKey = redact(c.OpenAI.APIKey)
	out.OpenAI.APIKeyAlias = ""
	out.Pipedream.ClientSecret = redact(c.Pipedream.ClientSecret)
	return &out
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redactedValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
