package biz

import (
	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Filter       *usecase.FilterUsecase
	Conversation *usecase.ConversationUsecase
	Command      *usecase.CommandUsecase
}

// Repos are the repositories the usecases depend on
type Repos struct {
	Message      repo.MessageRepo
	Conversation repo.ConversationRepo
	Completion   repo.CompletionRepo
	ToolGateway  repo.ToolGatewayRepo // nil disables the tool gateway
}

// NewUsecases wires all usecases
func NewUsecases(
	repos Repos,
	policy domain.FilterPolicy,
	convCfg usecase.ConversationConfig,
	cmdCfg usecase.CommandConfig,
	log *zap.Logger,
) *Usecases {
	filterUC := usecase.NewFilterUsecase(policy)
	convUC := usecase.NewConversationUsecase(repos.Conversation, repos.Completion, repos.ToolGateway, convCfg, log.Named("conversation"))
	cmdUC := usecase.NewCommandUsecase(cmdCfg, repos.Message, convUC, filterUC)

	return &Usecases{
		Filter:       filterUC,
		Conversation: convUC,
		Command:      cmdUC,
	}
}
