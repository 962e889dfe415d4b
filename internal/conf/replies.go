package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
)

const defaultSystemMessage = "You are a helpful Discord bot assistant. Be concise and friendly."

// RepliesConfig contains reply texts loaded from YAML
type RepliesConfig struct {
	SystemMessage string         `yaml:"system_message"`
	Commands      CommandReplies `yaml:"commands"`

	// Source is the file the config was read from, empty for defaults
	Source string `yaml:"-"`
}

// CommandReplies contains command reply templates
type CommandReplies struct {
	Pong         string `yaml:"pong"`
	Model        string `yaml:"model"`
	ModelsHeader string `yaml:"models_header"`
	ModelsMore   string `yaml:"models_more"`
	Help         string `yaml:"help"`
	Reset        string `yaml:"reset"`
}

// LoadRepliesConfig loads replies configuration from YAML file
func LoadRepliesConfig(configPath string) (*RepliesConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/replies.yaml",
			"/etc/discord-mcp-relay/replies.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "replies.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		// An explicit path must exist
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		return DefaultRepliesConfig(), nil
	}

	var config RepliesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *RepliesConfig) fillDefaults() {
	defaults := DefaultRepliesConfig()

	if c.SystemMessage == "" {
		c.SystemMessage = defaults.SystemMessage
	}
	fill(&c.Commands.Pong, defaults.Commands.Pong)
	fill(&c.Commands.Model, defaults.Commands.Model)
	fill(&c.Commands.ModelsHeader, defaults.Commands.ModelsHeader)
	fill(&c.Commands.ModelsMore, defaults.Commands.ModelsMore)
	fill(&c.Commands.Help, defaults.Commands.Help)
	fill(&c.Commands.Reset, defaults.Commands.Reset)
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// ToReplyConfig converts to command reply configuration
func (c *RepliesConfig) ToReplyConfig() usecase.ReplyConfig {
	return usecase.ReplyConfig{
		Pong:         c.Commands.Pong,
		Model:        c.Commands.Model,
		ModelsHeader: c.Commands.ModelsHeader,
		ModelsMore:   c.Commands.ModelsMore,
		Help:         c.Commands.Help,
		Reset:        c.Commands.Reset,
	}
}

// DefaultRepliesConfig returns the default replies configuration
func DefaultRepliesConfig() *RepliesConfig {
	d := usecase.DefaultReplyConfig
	return &RepliesConfig{
		SystemMessage: defaultSystemMessage,
		Commands: CommandReplies{
			Pong:         d.Pong,
			Model:        d.Model,
			ModelsHeader: d.ModelsHeader,
			ModelsMore:   d.ModelsMore,
			Help:         d.Help,
			Reset:        d.Reset,
		},
	}
}
