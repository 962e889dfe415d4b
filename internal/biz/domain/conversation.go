package domain

import (
	"fmt"
	"time"
)

// ScopeMode decides how turns are grouped into conversations
type ScopeMode string

const (
	ScopeGlobal      ScopeMode = "global"       // One history for the whole process
	ScopeChannel     ScopeMode = "channel"      // One history per channel
	ScopeChannelUser ScopeMode = "channel_user" // One history per channel and author
)

// GlobalScopeKey is the only key used in global mode
const GlobalScopeKey = "global"

// ParseScopeMode parses a scope mode name
func ParseScopeMode(s string) (ScopeMode, error) {
	switch ScopeMode(s) {
	case ScopeGlobal, ScopeChannel, ScopeChannelUser:
		return ScopeMode(s), nil
	case "":
		return ScopeChannel, nil
	}
	return "", fmt.Errorf("unknown scope mode %q", s)
}

// Key returns the conversation scope key for a message
func (m ScopeMode) Key(msg *IncomingMessage) string {
	switch m {
	case ScopeGlobal:
		return GlobalScopeKey
	case ScopeChannelUser:
		return msg.ChannelID + ":" + msg.AuthorID
	default:
		return msg.ChannelID
	}
}

// ResponseRecord is one completed turn in a conversation history
type ResponseRecord struct {
	Scope      string
	ResponseID string
	CreatedAt  time.Time
}

// ScopeSummary describes one conversation scope
type ScopeSummary struct {
	Scope          string
	Turns          int
	LastResponseID string
	UpdatedAt      time.Time
}
