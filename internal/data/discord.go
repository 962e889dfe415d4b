package data

import (
	"context"
	"time"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

// DiscordSender is the subset of the Discord client used for posting
type DiscordSender interface {
	Reply(ctx context.Context, channelID, messageID, guildID, text string) error
	Typing(ctx context.Context, channelID string) error
	Latency() time.Duration
}

// discordRepo implements the Discord message repository
type discordRepo struct {
	client DiscordSender
}

// NewDiscordRepo creates a new Discord repository
func NewDiscordRepo(client DiscordSender) repo.MessageRepo {
	return &discordRepo{client: client}
}

// Reply posts text as a reply to the message
func (r *discordRepo) Reply(ctx context.Context, msg *domain.IncomingMessage, text string) error {
	return r.client.Reply(ctx, msg.ChannelID, msg.ID, msg.GuildID, text)
}

// SendTyping shows the typing indicator
func (r *discordRepo) SendTyping(ctx context.Context, channelID string) error {
	return r.client.Typing(ctx, channelID)
}

// Latency returns the gateway heartbeat latency
func (r *discordRepo) Latency() time.Duration {
	return r.client.Latency()
}
