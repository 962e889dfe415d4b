package repo

import (
	"context"
	"time"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// MessageRepo is the chat platform interface
// Responsible for posting back to the channel a message came from
type MessageRepo interface {
	// Reply posts text as a reply to the message
	Reply(ctx context.Context, msg *domain.IncomingMessage, text string) error

	// SendTyping shows the typing indicator in a channel
	SendTyping(ctx context.Context, channelID string) error

	// Latency returns the gateway heartbeat latency
	Latency() time.Duration
}
