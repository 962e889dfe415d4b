package domain

// DecisionReason explains an eligibility decision
type DecisionReason string

const (
	ReasonFromBot        DecisionReason = "from_bot"
	ReasonIgnoredPrefix  DecisionReason = "ignored_prefix"
	ReasonNotAddressed   DecisionReason = "not_addressed"
	ReasonAllowedChannel DecisionReason = "allowed_channel"
	ReasonMentioned      DecisionReason = "mentioned"
)

// Decision is the outcome of the eligibility predicate
type Decision struct {
	Accept bool
	Reason DecisionReason
}

// FilterPolicy holds the eligibility rules (value object)
type FilterPolicy struct {
	IgnorePrefixes  []string
	AllowedChannels []string

	allowed map[string]struct{}
}

// NewFilterPolicy creates a filter policy. Empty entries are dropped.
func NewFilterPolicy(ignorePrefixes, allowedChannels []string) FilterPolicy {
	p := FilterPolicy{allowed: make(map[string]struct{}, len(allowedChannels))}
	for _, prefix := range ignorePrefixes {
		if prefix != "" {
			p.IgnorePrefixes = append(p.IgnorePrefixes, prefix)
		}
	}
	for _, id := range allowedChannels {
		if id == "" {
			continue
		}
		if _, dup := p.allowed[id]; dup {
			continue
		}
		p.allowed[id] = struct{}{}
		p.AllowedChannels = append(p.AllowedChannels, id)
	}
	return p
}

// IsAllowedChannel checks the channel allow-list
func (p FilterPolicy) IsAllowedChannel(channelID string) bool {
	_, ok := p.allowed[channelID]
	return ok
}

// Addressed checks whether the message is aimed at the bot, either by
// channel allow-list or by mention.
func (p FilterPolicy) Addressed(msg *IncomingMessage, botID string) Decision {
	if p.IsAllowedChannel(msg.ChannelID) {
		return Decision{Accept: true, Reason: ReasonAllowedChannel}
	}
	if msg.MentionsUser(botID) {
		return Decision{Accept: true, Reason: ReasonMentioned}
	}
	return Decision{Accept: false, Reason: ReasonNotAddressed}
}

// Evaluate runs the eligibility predicate. It has no side effects.
func (p FilterPolicy) Evaluate(msg *IncomingMessage, botID string) Decision {
	if msg.AuthorIsBot {
		return Decision{Accept: false, Reason: ReasonFromBot}
	}
	if msg.HasAnyPrefix(p.IgnorePrefixes) {
		return Decision{Accept: false, Reason: ReasonIgnoredPrefix}
	}
	return p.Addressed(msg, botID)
}
