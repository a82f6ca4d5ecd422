package models

import "time"

// PendingReply is an acknowledged interaction whose original response will be edited
// once an asynchronous action completes. The token is the interaction's transient
// credential and is only valid for 15 minutes after the interaction was created.
type PendingReply struct {
	ID            string
	ApplicationID string
	InteractionID string
	Token         string
	Command       string
	CreatedAt     time.Time
}
