package data

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

// ChatOptions contains chat completions settings
type ChatOptions struct {
	SystemMessage string
	MaxTokens     int
	Temperature   float32
}

// chatRepo implements the completion repository on an OpenAI-compatible
// chat completions endpoint. The endpoint keeps no server-side state, so
// previous response IDs and remote tools are not forwarded.
type chatRepo struct {
	client *openai.Client
	opts   ChatOptions
}

// NewChatRepo creates a chat completions repository
func NewChatRepo(apiKey, baseURL string, opts ChatOptions) repo.CompletionRepo {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &chatRepo{
		client: openai.NewClientWithConfig(config),
		opts:   opts,
	}
}

// Complete sends the input as a single user message
func (r *chatRepo) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error) {
	var messages []openai.ChatCompletionMessage
	if r.opts.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.opts.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Input,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	return &domain.Completion{
		ResponseID: resp.ID,
		OutputText: resp.Choices[0].Message.Content,
	}, nil
}
