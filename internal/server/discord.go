package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/usecase"
	"github.com/relaykit/discord-mcp-relay/internal/infra/discord"
)

// seenTTL is how long a message ID is remembered for deduplication
const seenTTL = 5 * time.Minute

// Gateway is the chat gateway connection
type Gateway interface {
	OnMessage(handler discord.MessageHandler)
	Start() error
	Stop() error
	BotID() string
}

// MessageHandler handles one accepted chat event
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *domain.IncomingMessage, botID string) error
}

// DiscordServer binds the Discord gateway to the relay
type DiscordServer struct {
	gateway Gateway
	relay   MessageHandler
	log     *zap.Logger

	stateMu  sync.RWMutex // Orders inflight.Add against shutdown
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewDiscordServer creates a new Discord server
func NewDiscordServer(gateway Gateway, relay MessageHandler, log *zap.Logger) *DiscordServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &DiscordServer{
		gateway:  gateway,
		relay:    relay,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		seenMsgs: make(map[string]time.Time),
	}
}

// Start starts the server. A failed start closes whatever the gateway
// already opened.
func (s *DiscordServer) Start() error {
	s.gateway.OnMessage(s.handleMessage)
	if err := s.gateway.Start(); err != nil {
		if stopErr := s.gateway.Stop(); stopErr != nil {
			s.log.Warn("close gateway after failed start", zap.Error(stopErr))
		}
		s.cancel()
		return err
	}
	return nil
}

// Stop closes the gateway, cancels in-flight turns and waits for them
func (s *DiscordServer) Stop() error {
	err := s.gateway.Stop()

	s.stateMu.Lock()
	s.cancel()
	s.stateMu.Unlock()

	s.inflight.Wait()
	return err
}

// handleMessage handles Discord messages
func (s *DiscordServer) handleMessage(msg *domain.IncomingMessage) {
	s.stateMu.RLock()
	if s.ctx.Err() != nil {
		s.stateMu.RUnlock()
		return
	}
	s.inflight.Add(1)
	s.stateMu.RUnlock()
	defer s.inflight.Done()

	if !s.markMessageSeen(msg.ID) {
		s.log.Debug("duplicate message ignored", zap.String("message_id", msg.ID))
		return
	}

	err := s.relay.HandleMessage(s.ctx, msg, s.gateway.BotID())
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrScopeBusy):
		s.log.Info("dropped message, conversation busy",
			zap.String("message_id", msg.ID),
			zap.String("channel_id", msg.ChannelID),
		)
	default:
		s.log.Error("handle message failed",
			zap.String("message_id", msg.ID),
			zap.String("channel_id", msg.ChannelID),
			zap.Error(err),
		)
	}
}

// markMessageSeen records a message ID, false if it was already seen
func (s *DiscordServer) markMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}

	if _, exists := s.seenMsgs[msgID]; exists {
		return false
	}
	s.seenMsgs[msgID] = now
	return true
}
