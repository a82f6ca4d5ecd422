package services

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"rolebot/models"
)

// RoleMenuService defines reaction-driven role assignment and the role menu it listens to
type RoleMenuService interface {
	ToggleRole(ctx context.Context, event models.ReactionEvent) error
	RenderMenu() *discordgo.MessageEmbed
	DecorateMenu(ctx context.Context, reply models.PendingReply) error
}

// DeferredTask is the slow part of a two-phase reply. The returned content becomes the
// final edit of the original response; an error is rendered as a failure edit.
type DeferredTask func(ctx context.Context) (string, error)

// DeferredContinuation runs after the initial reply without editing it
type DeferredContinuation func(ctx context.Context, reply models.PendingReply) error

// DeferredResponderService defines the two-phase reply pattern
type DeferredResponderService interface {
	Defer(interaction *discordgo.Interaction, command, ack string, task DeferredTask) models.InteractionReply
	AfterReply(
		interaction *discordgo.Interaction,
		command string,
		response *discordgo.InteractionResponse,
		fn DeferredContinuation,
	) models.InteractionReply
	Stop()
}
