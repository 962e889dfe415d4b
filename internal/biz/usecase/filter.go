package usecase

import (
	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// FilterUsecase handles filtering logic
type FilterUsecase struct {
	policy domain.FilterPolicy
}

// NewFilterUsecase creates a new filter usecase
func NewFilterUsecase(policy domain.FilterPolicy) *FilterUsecase {
	return &FilterUsecase{policy: policy}
}

// Evaluate decides whether the bot should respond
func (uc *FilterUsecase) Evaluate(msg *domain.IncomingMessage, botID string) domain.Decision {
	return uc.policy.Evaluate(msg, botID)
}

// IsAddressed reports whether the message is aimed at the bot
// (allowed channel or mention), ignoring the prefix rule
func (uc *FilterUsecase) IsAddressed(msg *domain.IncomingMessage, botID string) bool {
	return uc.policy.Addressed(msg, botID).Accept
}

// AllowedChannels returns the channel allow-list
func (uc *FilterUsecase) AllowedChannels() []string {
	return uc.policy.AllowedChannels
}
