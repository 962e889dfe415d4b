package domain

import (
	"strings"
	"time"
)

// IncomingMessage represents a chat message delivered by the gateway
type IncomingMessage struct {
	ID          string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool // Whether the author is a bot account
	ChannelID   string
	GuildID     string // Empty for direct messages
	Content     string
	Mentions    map[string]struct{} // Mentioned user IDs
	CreateTime  time.Time
}

// NewMentionSet builds a mention set from user IDs
func NewMentionSet(userIDs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// MentionsUser checks if the user is in the mention set
func (m *IncomingMessage) MentionsUser(userID string) bool {
	if userID == "" {
		return false
	}
	_, ok := m.Mentions[userID]
	return ok
}

// HasAnyPrefix checks if the content starts with any of the prefixes.
// Empty prefixes never match.
func (m *IncomingMessage) HasAnyPrefix(prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(m.Content, p) {
			return true
		}
	}
	return false
}

// MentionIDs returns the mentioned user IDs (unordered)
func (m *IncomingMessage) MentionIDs() []string {
	ids := make([]string, 0, len(m.Mentions))
	for id := range m.Mentions {
		ids = append(ids, id)
	}
	return ids
}
