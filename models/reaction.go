package models

// ReactionSource identifies which gateway channel delivered a reaction
type ReactionSource string

const (
	ReactionSourceRaw        ReactionSource = "raw"
	ReactionSourceNormalized ReactionSource = "normalized"
)

// ReactionEvent is a reaction add/remove as delivered by the gateway. It may be partial
// or stale; consumers must re-fetch the message before acting on it.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	IsAdd     bool
	Source    ReactionSource
}

// Action returns "add" or "remove"
func (e ReactionEvent) Action() string {
	if e.IsAdd {
		return "add"
	}
	return "remove"
}
