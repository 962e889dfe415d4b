package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
)

const (
	DefaultMaxReplyLength = 2000 // Discord message limit
	DefaultTurnTimeout    = 60 * time.Second

	truncationSuffix = "..."
)

// RelayConfig contains relay settings
type RelayConfig struct {
	MaxReplyLength int
	TurnTimeout    time.Duration
}

// RelayService relays chat messages to the completion endpoint
type RelayService struct {
	filterUC    *usecase.FilterUsecase
	commandUC   *usecase.CommandUsecase
	convUC      *usecase.ConversationUsecase
	messageRepo repo.MessageRepo
	cfg         RelayConfig
	log         *zap.Logger
}

// NewRelayService creates a new relay service
func NewRelayService(
	filterUC *usecase.FilterUsecase,
	commandUC *usecase.CommandUsecase,
	convUC *usecase.ConversationUsecase,
	messageRepo repo.MessageRepo,
	cfg RelayConfig,
	log *zap.Logger,
) *RelayService {
	if cfg.MaxReplyLength <= 0 {
		cfg.MaxReplyLength = DefaultMaxReplyLength
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	return &RelayService{
		filterUC:    filterUC,
		commandUC:   commandUC,
		convUC:      convUC,
		messageRepo: messageRepo,
		cfg:         cfg,
		log:         log,
	}
}

// HandleMessage processes one chat event.
// Returns usecase.ErrScopeBusy when the turn was dropped.
func (s *RelayService) HandleMessage(ctx context.Context, msg *domain.IncomingMessage, botID string) error {
	if msg.AuthorIsBot {
		s.log.Debug("ignored message", zap.String("message_id", msg.ID), zap.String("reason", string(domain.ReasonFromBot)))
		return nil
	}

	// 1. Commands
	if cmd, ok := s.commandUC.Parse(msg.Content); ok {
		if !s.filterUC.IsAddressed(msg, botID) {
			s.log.Debug("ignored command outside allowed channels", zap.String("command", cmd.Name), zap.String("channel_id", msg.ChannelID))
			return nil
		}
		return s.runCommand(ctx, cmd, msg)
	}

	// 2. Filter
	decision := s.filterUC.Evaluate(msg, botID)
	if !decision.Accept {
		s.log.Debug("ignored message",
			zap.String("message_id", msg.ID),
			zap.String("channel_id", msg.ChannelID),
			zap.String("reason", string(decision.Reason)),
		)
		return nil
	}

	// 3. Respond
	return s.respond(ctx, msg, decision)
}

func (s *RelayService) runCommand(ctx context.Context, cmd *usecase.Command, msg *domain.IncomingMessage) error {
	reply, err := s.commandUC.Execute(ctx, cmd, msg)
	if err != nil {
		return fmt.Errorf("command %s: %w", cmd.Name, err)
	}
	if err := s.messageRepo.Reply(ctx, msg, truncateReply(reply, s.cfg.MaxReplyLength)); err != nil {
		return fmt.Errorf("reply to command %s: %w", cmd.Name, err)
	}
	s.log.Info("command handled", zap.String("command", cmd.Name), zap.String("author", msg.AuthorName))
	return nil
}

func (s *RelayService) respond(ctx context.Context, msg *domain.IncomingMessage, decision domain.Decision) error {
	log := s.log.With(
		zap.String("turn_id", uuid.NewString()),
		zap.String("message_id", msg.ID),
		zap.String("channel_id", msg.ChannelID),
	)
	log.Info("accepted message", zap.String("reason", string(decision.Reason)), zap.String("author", msg.AuthorName))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()

	if err := s.messageRepo.SendTyping(ctx, msg.ChannelID); err != nil {
		log.Debug("typing indicator failed", zap.Error(err))
	}

	start := time.Now()
	result, err := s.convUC.Respond(ctx, msg, func(ctx context.Context, c *domain.Completion) error {
		if strings.TrimSpace(c.OutputText) == "" {
			log.Warn("completion returned no text", zap.String("response_id", c.ResponseID))
			return nil
		}
		return s.messageRepo.Reply(ctx, msg, truncateReply(c.OutputText, s.cfg.MaxReplyLength))
	})
	if err != nil {
		if errors.Is(err, usecase.ErrScopeBusy) {
			return err
		}
		return fmt.Errorf("respond: %w", err)
	}

	if result.DeliverErr != nil {
		log.Error("failed to post reply", zap.String("response_id", result.Completion.ResponseID), zap.Error(result.DeliverErr))
	}

	log.Info("turn completed",
		zap.String("scope", result.Scope),
		zap.String("previous_response_id", result.PreviousResponseID),
		zap.String("response_id", result.Completion.ResponseID),
		zap.Int("chars", utf8.RuneCountInString(result.Completion.OutputText)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// truncateReply shortens text to at most limit runes
func truncateReply(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	keep := limit - utf8.RuneCountInString(truncationSuffix)
	if keep <= 0 {
		return string(runes[:limit])
	}
	return string(runes[:keep]) + truncationSuffix
}
