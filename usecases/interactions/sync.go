package interactions

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"rolebot/clients"
	"rolebot/core/log"
)

// CommandSummary is the public view of a registered command
type CommandSummary struct {
	Name        string                                `json:"name"`
	Description string                                `json:"description"`
	Options     []*discordgo.ApplicationCommandOption `json:"options"`
}

// CommandSyncUseCase keeps the platform's command set in line with the registry
type CommandSyncUseCase struct {
	discordClient clients.DiscordClient
	registry      *Registry
}

func NewCommandSyncUseCase(discordClient clients.DiscordClient, registry *Registry) *CommandSyncUseCase {
	return &CommandSyncUseCase{
		discordClient: discordClient,
		registry:      registry,
	}
}

// RegisterCommands overwrites the platform's global commands with the registry's
func (u *CommandSyncUseCase) RegisterCommands(ctx context.Context) ([]CommandSummary, error) {
	log.Info("📋 Starting to register application commands")

	registered, err := u.discordClient.OverwriteCommands(ctx, u.registry.ApplicationCommands())
	if err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	log.Info("📋 Completed successfully - registered %d commands", len(registered))
	return summarize(registered), nil
}

// ListCommands returns the commands currently registered on the platform
func (u *CommandSyncUseCase) ListCommands(ctx context.Context) ([]CommandSummary, error) {
	commands, err := u.discordClient.ListCommands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	return summarize(commands), nil
}

func summarize(commands []*discordgo.ApplicationCommand) []CommandSummary {
	summaries := make([]CommandSummary, 0, len(commands))
	for _, command := range commands {
		if command == nil {
			continue
		}
		options := command.Options
		if options == nil {
			options = []*discordgo.ApplicationCommandOption{}
		}
		summaries = append(summaries, CommandSummary{
			Name:        command.Name,
			Description: command.Description,
			Options:     options,
		})
	}
	return summaries
}
