package repo

import (
	"context"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// ConversationRepo stores the append-only response history per scope
type ConversationRepo interface {
	// Last gets the most recent record of a scope, nil if the scope is empty
	Last(ctx context.Context, scope string) (*domain.ResponseRecord, error)

	// Append appends a record to its scope
	Append(ctx context.Context, rec *domain.ResponseRecord) error

	// Count returns the number of records in a scope
	Count(ctx context.Context, scope string) (int, error)

	// History lists a scope's records, oldest first
	History(ctx context.Context, scope string) ([]*domain.ResponseRecord, error)

	// Reset removes all records of a scope
	Reset(ctx context.Context, scope string) (int64, error)

	// ListScopes summarizes every non-empty scope
	ListScopes(ctx context.Context) ([]*domain.ScopeSummary, error)

	Close() error
}
