package models

import "github.com/bwmarrin/discordgo"

// InteractionReply is the synchronous answer to an interaction plus an optional
// continuation that must only run after the response has been written
type InteractionReply struct {
	Response *discordgo.InteractionResponse
	FollowUp func()
}

// HasFollowUp reports whether a continuation is attached
func (r InteractionReply) HasFollowUp() bool {
	return r.FollowUp != nil
}
