package data

import (
	"fmt"

	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
	"github.com/relaykit/discord-mcp-relay/internal/infra/pipedream"
)

// Completion backends
const (
	BackendResponses = "responses"
	BackendChat      = "chat"
)

// Options contains repository settings
type Options struct {
	Backend  string
	APIKey   string
	BaseURL  string
	Chat     ChatOptions
	StoreDSN string
}

// Repositories contains all repositories
type Repositories struct {
	Message      repo.MessageRepo
	Conversation repo.ConversationRepo
	Completion   repo.CompletionRepo
	ToolGateway  repo.ToolGatewayRepo
}

// NewRepositories creates all repositories.
// pipedreamClient may be nil when the tool gateway is disabled.
func NewRepositories(
	sender DiscordSender,
	pipedreamClient *pipedream.Client,
	opts Options,
) (*Repositories, error) {
	completion, err := NewCompletionRepo(opts)
	if err != nil {
		return nil, err
	}

	conversationRepo, err := NewConversationRepo(opts.StoreDSN)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message:      NewDiscordRepo(sender),
		Conversation: conversationRepo,
		Completion:   completion,
		ToolGateway:  NewToolGatewayRepo(pipedreamClient),
	}, nil
}

// NewCompletionRepo creates the completion repository for the configured backend
func NewCompletionRepo(opts Options) (repo.CompletionRepo, error) {
	switch opts.Backend {
	case "", BackendResponses:
		return NewResponsesRepo(opts.APIKey, opts.BaseURL), nil
	case BackendChat:
		return NewChatRepo(opts.APIKey, opts.BaseURL, opts.Chat), nil
	}
	return nil, fmt.Errorf("unknown completion backend %q", opts.Backend)
}
