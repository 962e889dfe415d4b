package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

// Command names
const (
	CommandPing   = "ping"
	CommandModel  = "model"
	CommandModels = "models"
	CommandHelp   = "help"
	CommandReset  = "reset"
)

// maxListedModels caps the models command output
const maxListedModels = 10

// ReplyConfig contains command reply templates.
// Placeholders: {latency} {model} {models} {more} {prefix} {channels} {removed}
type ReplyConfig struct {
	Pong         string
	Model        string
	ModelsHeader string
	ModelsMore   string
	Help         string
	Reset        string
}

// DefaultReplyConfig is used when no replies file is found
var DefaultReplyConfig = ReplyConfig{
	Pong:         "🏓 Pong! Latency: {latency}ms",
	Model:        "🧠 Current model: `{model}`",
	ModelsHeader: "🤖 Available models:",
	ModelsMore:   "... and {more} more",
	Help: `🤖 **Relay Bot Commands**

**Basic Commands:**
• ` + "`{prefix}ping`" + ` - Test bot responsiveness
• ` + "`{prefix}model`" + ` - Show current AI model
• ` + "`{prefix}models`" + ` - List available models
• ` + "`{prefix}reset`" + ` - Forget this conversation
• ` + "`{prefix}help`" + ` - Show this help message

**AI Interaction:**
• Mention the bot or message in allowed channels for AI responses

**Configured Channels:** {channels}
**Current Model:** ` + "`{model}`",
	Reset: "🧹 Conversation reset ({removed} turns cleared).",
}

// CommandConfig contains command settings
type CommandConfig struct {
	Prefix          string
	AvailableModels []string
	Replies         ReplyConfig
}

// Command is a parsed command invocation
type Command struct {
	Name string
	Args []string
}

// CommandUsecase handles the bot's prefix commands
type CommandUsecase struct {
	cfg         CommandConfig
	messageRepo repo.MessageRepo
	convUC      *ConversationUsecase
	filterUC    *FilterUsecase
}

// NewCommandUsecase creates a new command usecase
func NewCommandUsecase(
	cfg CommandConfig,
	messageRepo repo.MessageRepo,
	convUC *ConversationUsecase,
	filterUC *FilterUsecase,
) *CommandUsecase {
	return &CommandUsecase{
		cfg:         cfg,
		messageRepo: messageRepo,
		convUC:      convUC,
		filterUC:    filterUC,
	}
}

// Parse extracts a known command from content
func (uc *CommandUsecase) Parse(content string) (*Command, bool) {
	if uc.cfg.Prefix == "" || !strings.HasPrefix(content, uc.cfg.Prefix) {
		return nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, uc.cfg.Prefix))
	if len(fields) == 0 {
		return nil, false
	}

	name := strings.ToLower(fields[0])
	switch name {
	case CommandPing, CommandModel, CommandModels, CommandHelp, CommandReset:
		return &Command{Name: name, Args: fields[1:]}, true
	}
	return nil, false
}

// Execute runs a command and returns the reply text
func (uc *CommandUsecase) Execute(ctx context.Context, cmd *Command, msg *domain.IncomingMessage) (string, error) {
	replies := uc.cfg.Replies

	switch cmd.Name {
	case CommandPing:
		latency := uc.messageRepo.Latency().Milliseconds()
		return render(replies.Pong, "{latency}", strconv.FormatInt(latency, 10)), nil

	case CommandModel:
		return render(replies.Model, "{model}", uc.convUC.Model()), nil

	case CommandModels:
		return uc.formatModels(), nil

	case CommandHelp:
		channels := make([]string, 0, len(uc.filterUC.AllowedChannels()))
		for _, id := range uc.filterUC.AllowedChannels() {
			channels = append(channels, "<#"+id+">")
		}
		return render(replies.Help,
			"{prefix}", uc.cfg.Prefix,
			"{channels}", strings.Join(channels, ", "),
			"{model}", uc.convUC.Model(),
		), nil

	case CommandReset:
		removed, err := uc.convUC.ResetScope(ctx, uc.convUC.ScopeKey(msg))
		if err != nil {
			return "", fmt.Errorf("reset scope: %w", err)
		}
		return render(replies.Reset, "{removed}", strconv.FormatInt(removed, 10)), nil
	}

	return "", fmt.Errorf("unknown command %q", cmd.Name)
}

func (uc *CommandUsecase) formatModels() string {
	models := uc.cfg.AvailableModels
	listed := models
	if len(listed) > maxListedModels {
		listed = listed[:maxListedModels]
	}

	var sb strings.Builder
	sb.WriteString(uc.cfg.Replies.ModelsHeader)
	for _, m := range listed {
		sb.WriteString("\n• `")
		sb.WriteString(m)
		sb.WriteString("`")
	}
	if extra := len(models) - len(listed); extra > 0 {
		sb.WriteString("\n")
		sb.WriteString(render(uc.cfg.Replies.ModelsMore, "{more}", strconv.Itoa(extra)))
	}
	return sb.String()
}

func render(template string, oldnew ...string) string {
	return strings.NewReplacer(oldnew...).Replace(template)
}
