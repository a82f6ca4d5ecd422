package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
	"rolebot/services/deferred"
)

// ReplyBudget is how long the platform waits for the initial interaction response
const ReplyBudget = 3 * time.Second

type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch produces the synchronous reply for a verified interaction. Only malformed
// payloads return an error; every other outcome is a reply for the user.
func (d *Dispatcher) Dispatch(ctx context.Context, interaction *discordgo.Interaction) (models.InteractionReply, error) {
	if interaction == nil || interaction.Type == 0 {
		metrics.InteractionsTotal.WithLabelValues("missing", "", "bad_request").Inc()
		return models.InteractionReply{}, fmt.Errorf("interaction type is missing: %w", core.ErrBadRequest)
	}

	switch interaction.Type {
	case discordgo.InteractionPing:
		metrics.InteractionsTotal.WithLabelValues("ping", "", "pong").Inc()
		return models.InteractionReply{
			Response: &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong},
		}, nil

	case discordgo.InteractionApplicationCommand:
		return d.dispatchCommand(ctx, interaction)

	default:
		log.Warn("⚠️ Unsupported interaction type %d (%s)", interaction.Type, interaction.ID)
		metrics.InteractionsTotal.WithLabelValues(interaction.Type.String(), "", "unsupported").Inc()
		return models.InteractionReply{
			Response: deferred.EphemeralMessage("❌ Este tipo de interacción no está soportado."),
		}, nil
	}
}

func (d *Dispatcher) dispatchCommand(
	ctx context.Context,
	interaction *discordgo.Interaction,
) (models.InteractionReply, error) {
	invocation, err := parseInvocation(interaction)
	if err != nil {
		metrics.InteractionsTotal.WithLabelValues("command", "", "bad_request").Inc()
		return models.InteractionReply{}, err
	}
	key := invocation.Key()
	log.Info("📋 Starting to dispatch command %s from user %s", key, invocation.UserID)

	descriptor, ok := d.registry.Lookup(key).Get()
	if !ok {
		log.Warn("⚠️ Unknown command %s", key)
		metrics.InteractionsTotal.WithLabelValues("command", key, "unknown").Inc()
		return models.InteractionReply{
			Response: deferred.EphemeralMessage(fmt.Sprintf("❓ Comando desconocido: /%s", strings.ReplaceAll(key, "/", " "))),
		}, nil
	}

	if missing := descriptor.MissingParams(invocation); len(missing) > 0 {
		log.Info("📋 Command %s is missing required params: %v", key, missing)
		metrics.InteractionsTotal.WithLabelValues("command", key, string(core.ErrorClassValidation)).Inc()
		return models.InteractionReply{
			Response: deferred.EphemeralMessage(
				fmt.Sprintf("❌ Faltan parámetros requeridos: %s", strings.Join(missing, ", ")),
			),
		}, nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, ReplyBudget)
	defer cancel()

	started := time.Now()
	reply, err := descriptor.Handler(budgetCtx, interaction, invocation)
	if elapsed := time.Since(started); elapsed > ReplyBudget {
		log.Warn("⚠️ Command %s took %s, over the %s reply budget", key, elapsed, ReplyBudget)
	}

	if err != nil {
		class := core.Classify(err)
		metrics.InteractionsTotal.WithLabelValues("command", key, string(class)).Inc()
		if errors.Is(err, core.ErrValidation) {
			log.Info("📋 Command %s rejected: %v", key, err)
			return models.InteractionReply{Response: deferred.EphemeralMessage(deferred.FailureMessage(err))}, nil
		}
		log.Error("❌ Command %s failed (%s): %v", key, class, err)
		return models.InteractionReply{
			Response: deferred.EphemeralMessage("❌ Ocurrió un error procesando el comando."),
		}, nil
	}
	if reply.Response == nil {
		log.Error("❌ Command %s produced no response", key)
		metrics.InteractionsTotal.WithLabelValues("command", key, "empty").Inc()
		return models.InteractionReply{
			Response: deferred.EphemeralMessage("❌ Ocurrió un error procesando el comando."),
		}, nil
	}

	metrics.InteractionsTotal.WithLabelValues("command", key, "accepted").Inc()
	log.Info("📋 Completed successfully - dispatched command %s", key)
	return reply, nil
}

// parseInvocation flattens an APPLICATION_COMMAND payload into name, subcommand and options
func parseInvocation(interaction *discordgo.Interaction) (models.CommandInvocation, error) {
	data, ok := interaction.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok || data.Name == "" {
		return models.CommandInvocation{}, fmt.Errorf("application command has no name: %w", core.ErrBadRequest)
	}

	invocation := models.CommandInvocation{
		Name:      data.Name,
		GuildID:   interaction.GuildID,
		ChannelID: interaction.ChannelID,
	}
	if interaction.Member != nil && interaction.Member.User != nil {
		invocation.UserID = interaction.Member.User.ID
	} else if interaction.User != nil {
		invocation.UserID = interaction.User.ID
	}

	options := data.Options
	if len(options) > 0 && options[0] != nil &&
		(options[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
			options[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		invocation.Subcommand = options[0].Name
		options = options[0].Options
	}

	for _, option := range options {
		if option == nil {
			continue
		}
		invocation.Options = append(invocation.Options, models.CommandOption{
			Name:  option.Name,
			Value: option.Value,
		})
	}
	return invocation, nil
}
