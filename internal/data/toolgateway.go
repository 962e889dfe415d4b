package data

import (
	"context"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
	"github.com/relaykit/discord-mcp-relay/internal/infra/pipedream"
)

// pipedreamRepo implements the tool gateway repository on Pipedream Connect
type pipedreamRepo struct {
	client *pipedream.Client
}

// NewToolGatewayRepo creates a tool gateway repository.
// Returns nil when the gateway is disabled.
func NewToolGatewayRepo(client *pipedream.Client) repo.ToolGatewayRepo {
	if client == nil {
		return nil
	}
	return &pipedreamRepo{client: client}
}

// Descriptor builds the MCP tool entry with a fresh bearer token
func (r *pipedreamRepo) Descriptor(ctx context.Context) (*domain.ToolGateway, error) {
	token, err := r.client.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.ToolGateway{
		Label:           r.client.AppSlug(),
		ServerURL:       r.client.MCPURL(),
		Headers:         r.client.Headers(token),
		RequireApproval: domain.ApprovalNever,
	}, nil
}

// ListTools lists the gateway's tools
func (r *pipedreamRepo) ListTools(ctx context.Context) ([]domain.ToolInfo, error) {
	tools, err := r.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ToolInfo, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		result = append(result, domain.ToolInfo{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return result, nil
}
