package clients

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"rolebot/models"
)

// DiscordClient defines the Discord REST operations the bot depends on.
// Every call goes to the API; nothing is served from the gateway state cache.
type DiscordClient interface {
	// BotUserID returns the bot's own user id once the gateway session is ready
	BotUserID() string

	// Source-of-truth reads
	FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	FetchChannel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	FetchUser(ctx context.Context, userID string) (*discordgo.User, error)
	FetchGuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	FetchMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error)

	// Role mutations
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error

	// Message reactions
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// Interaction responses
	FetchOriginalResponse(ctx context.Context, reply models.PendingReply) (*discordgo.Message, error)
	EditOriginalResponse(ctx context.Context, reply models.PendingReply, content string) error

	// Application commands
	ListCommands(ctx context.Context) ([]*discordgo.ApplicationCommand, error)
	OverwriteCommands(
		ctx context.Context,
		commands []*discordgo.ApplicationCommand,
	) ([]*discordgo.ApplicationCommand, error)
}

// ChatRelayClient defines the secondary messaging channel (chat/SMS relay gateway)
type ChatRelayClient interface {
	Init(ctx context.Context) (models.RelayStatus, error)
	SendMessage(ctx context.Context, msg models.RelayMessage) (string, error)
	Status() models.RelayStatus
	Close()
}

// MailClient defines outbound email delivery
type MailClient interface {
	SendMail(ctx context.Context, msg models.MailMessage) (string, error)
}
