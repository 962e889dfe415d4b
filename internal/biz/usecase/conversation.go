package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

// BusyPolicy decides what happens to a turn whose scope is already busy
type BusyPolicy string

const (
	BusyQueue BusyPolicy = "queue" // Wait for the in-flight turn
	BusyDrop  BusyPolicy = "drop"  // Give up with ErrScopeBusy
)

// ParseBusyPolicy parses a busy policy name
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch BusyPolicy(s) {
	case BusyQueue, BusyDrop:
		return BusyPolicy(s), nil
	case "":
		return BusyQueue, nil
	}
	return "", fmt.Errorf("unknown busy policy %q", s)
}

// ConversationConfig contains request assembly settings
type ConversationConfig struct {
	Prompt     domain.PromptRef
	Model      string
	ScopeMode  domain.ScopeMode
	BusyPolicy BusyPolicy
}

// DeliverFunc posts a completion back to the chat.
// It runs while the scope is still held.
type DeliverFunc func(ctx context.Context, c *domain.Completion) error

// TurnResult describes a finished turn
type TurnResult struct {
	Scope              string
	PreviousResponseID string
	Completion         *domain.Completion
	DeliverErr         error // Reply failure, the turn is still recorded
}

// ConversationUsecase threads completions through per-scope histories
type ConversationUsecase struct {
	convRepo       repo.ConversationRepo
	completionRepo repo.CompletionRepo
	toolRepo       repo.ToolGatewayRepo // nil when no tool gateway is attached
	cfg            ConversationConfig
	locks          *scopeLocker
	log            *zap.Logger
	now            func() time.Time
}

// NewConversationUsecase creates a new conversation usecase
func NewConversationUsecase(
	convRepo repo.ConversationRepo,
	completionRepo repo.CompletionRepo,
	toolRepo repo.ToolGatewayRepo,
	cfg ConversationConfig,
	log *zap.Logger,
) *ConversationUsecase {
	if cfg.ScopeMode == "" {
		cfg.ScopeMode = domain.ScopeChannel
	}
	if cfg.BusyPolicy == "" {
		cfg.BusyPolicy = BusyQueue
	}
	return &ConversationUsecase{
		convRepo:       convRepo,
		completionRepo: completionRepo,
		toolRepo:       toolRepo,
		cfg:            cfg,
		locks:          newScopeLocker(),
		log:            log,
		now:            time.Now,
	}
}

// Model returns the configured model
func (uc *ConversationUsecase) Model() string {
	return uc.cfg.Model
}

// ScopeKey returns the conversation scope of a message
func (uc *ConversationUsecase) ScopeKey(msg *domain.IncomingMessage) string {
	return uc.cfg.ScopeMode.Key(msg)
}

// Respond runs one turn (core method).
// On completion failure it returns a nil result and leaves history untouched.
func (uc *ConversationUsecase) Respond(ctx context.Context, msg *domain.IncomingMessage, deliver DeliverFunc) (*TurnResult, error) {
	scope := uc.ScopeKey(msg)

	// 1. One turn in flight per scope
	release, err := uc.locks.acquire(ctx, scope, uc.cfg.BusyPolicy == BusyQueue)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Build request against the scope's last response
	req, err := uc.buildRequest(ctx, scope, msg.Content)
	if err != nil {
		return nil, err
	}

	// 3. Round-trip
	completion, err := uc.completionRepo.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	result := &TurnResult{
		Scope:              scope,
		PreviousResponseID: req.PreviousResponseID,
		Completion:         completion,
	}

	// 4. Reply
	if deliver != nil {
		result.DeliverErr = deliver(ctx, completion)
	}

	// 5. Record the turn. The endpoint stored it, so the next turn may thread
	// from it even when the reply could not be posted.
	rec := &domain.ResponseRecord{
		Scope:      scope,
		ResponseID: completion.ResponseID,
		CreatedAt:  uc.now(),
	}
	if err := uc.convRepo.Append(ctx, rec); err != nil {
		return result, fmt.Errorf("append history: %w", err)
	}

	return result, nil
}

func (uc *ConversationUsecase) buildRequest(ctx context.Context, scope, input string) (*domain.CompletionRequest, error) {
	req := &domain.CompletionRequest{
		Prompt: uc.cfg.Prompt,
		Model:  uc.cfg.Model,
		Input:  input,
		Store:  true,
	}

	last, err := uc.convRepo.Last(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if last != nil {
		req.PreviousResponseID = last.ResponseID
	}

	if uc.toolRepo != nil {
		tool, err := uc.toolRepo.Descriptor(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool gateway: %w", err)
		}
		req.Tools = append(req.Tools, *tool)
	}

	uc.log.Debug("built completion request",
		zap.String("scope", scope),
		zap.String("previous_response_id", req.PreviousResponseID),
		zap.Int("tools", len(req.Tools)),
	)
	return req, nil
}

// ResetScope clears a scope's history.
// It waits for an in-flight turn so that turn's record is cleared too.
func (uc *ConversationUsecase) ResetScope(ctx context.Context, scope string) (int64, error) {
	release, err := uc.locks.acquire(ctx, scope, true)
	if err != nil {
		return 0, err
	}
	defer release()

	return uc.convRepo.Reset(ctx, scope)
}

// Scopes lists conversation scopes
func (uc *ConversationUsecase) Scopes(ctx context.Context) ([]*domain.ScopeSummary, error) {
	return uc.convRepo.ListScopes(ctx)
}

// History lists a scope's records
func (uc *ConversationUsecase) History(ctx context.Context, scope string) ([]*domain.ResponseRecord, error) {
	return uc.convRepo.History(ctx, scope)
}

// HistoryLen returns the number of turns recorded for a scope
func (uc *ConversationUsecase) HistoryLen(ctx context.Context, scope string) (int, error) {
	return uc.convRepo.Count(ctx, scope)
}
