package repo

import (
	"context"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// ToolGatewayRepo provides the remote MCP tool gateway
type ToolGatewayRepo interface {
	// Descriptor returns the tool entry to attach to a completion request,
	// with a currently valid bearer credential
	Descriptor(ctx context.Context) (*domain.ToolGateway, error)

	// ListTools lists the tools the gateway exposes
	ListTools(ctx context.Context) ([]domain.ToolInfo, error)
}
