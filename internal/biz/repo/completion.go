package repo

import (
	"context"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// CompletionRepo is the completion endpoint interface
type CompletionRepo interface {
	// Complete performs one request/response round-trip.
	// On error the returned completion is always nil.
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error)
}
