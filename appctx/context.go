package appctx

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

type contextKey string

const (
	InteractionContextKey contextKey = "interaction"
	RequestIDContextKey   contextKey = "request_id"
)

// SetInteraction stores a signature-verified interaction in the request context
func SetInteraction(ctx context.Context, interaction *discordgo.Interaction) context.Context {
	return context.WithValue(ctx, InteractionContextKey, interaction)
}

// GetInteraction extracts the verified interaction from the request context
func GetInteraction(ctx context.Context) (*discordgo.Interaction, bool) {
	interaction, ok := ctx.Value(InteractionContextKey).(*discordgo.Interaction)
	return interaction, ok && interaction != nil
}

// SetRequestID adds a correlation id to the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// GetRequestID returns the correlation id or an empty string
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDContextKey).(string)
	return requestID
}
