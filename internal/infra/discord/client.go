package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// Intents the relay needs. Message content is a privileged intent and
// must be enabled for the application in the developer portal.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

// MessageHandler is the callback for received messages
type MessageHandler func(msg *domain.IncomingMessage)

// Client is the Discord gateway client
type Client struct {
	session   *discordgo.Session
	onMessage MessageHandler
	log       *zap.Logger

	mu    sync.RWMutex
	botID string // Learned at login
}

// NewClient creates a new Discord client
func NewClient(token string, log *zap.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	return &Client{
		session: session,
		log:     log,
	}, nil
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start opens the gateway connection and learns the bot identity.
// Events are delivered on discordgo's goroutines after it returns.
func (c *Client) Start() error {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleMessageCreate)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("get bot user: %w", err)
	}
	c.setBotID(user.ID)

	c.log.Info("logged in", zap.String("tag", user.String()), zap.String("user_id", user.ID))
	return nil
}

// Stop closes the gateway connection
func (c *Client) Stop() error {
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

// BotID returns the bot's own user ID, empty before login
func (c *Client) BotID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botID
}

func (c *Client) setBotID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.botID = id
}

// Reply posts text as a reply to a message
func (c *Client) Reply(ctx context.Context, channelID, messageID, guildID, text string) error {
	ref := &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
	}
	if _, err := c.session.ChannelMessageSendReply(channelID, text, ref, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Typing shows the typing indicator in a channel
func (c *Client) Typing(ctx context.Context, channelID string) error {
	if err := c.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send typing: %w", err)
	}
	return nil
}

// Latency returns the gateway heartbeat latency
func (c *Client) Latency() time.Duration {
	return c.session.HeartbeatLatency()
}

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	c.setBotID(r.User.ID)
	c.log.Info("gateway ready", zap.Int("guilds", len(r.Guilds)))
}

// handleMessageCreate processes incoming Discord messages
func (c *Client) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}

	// Never react to our own messages
	if m.Author.ID == c.BotID() {
		return
	}

	if c.onMessage != nil {
		c.onMessage(ToIncomingMessage(m.Message))
	}
}

// ToIncomingMessage converts a Discord message to the domain model
func ToIncomingMessage(m *discordgo.Message) *domain.IncomingMessage {
	msg := &domain.IncomingMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		Content:    m.Content,
		CreateTime: m.Timestamp,
		Mentions:   make(map[string]struct{}, len(m.Mentions)),
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorIsBot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID != "" {
			msg.Mentions[u.ID] = struct{}{}
		}
	}
	return msg
}
