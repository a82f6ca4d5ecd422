package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"rolebot/clients"
	"rolebot/core"
	"rolebot/models"
)

// DiscordClient implements the clients.DiscordClient interface on top of a discordgo session
type DiscordClient struct {
	session       *discordgo.Session
	applicationID string
}

// NewDiscordClient wraps an existing session; the session may or may not have an open gateway
func NewDiscordClient(session *discordgo.Session, applicationID string) clients.DiscordClient {
	return &DiscordClient{
		session:       session,
		applicationID: applicationID,
	}
}

func (c *DiscordClient) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *DiscordClient) FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	message, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch message %s in channel %s", messageID, channelID), err)
	}
	return message, nil
}

func (c *DiscordClient) FetchChannel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	channel, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch channel %s", channelID), err)
	}
	return channel, nil
}

func (c *DiscordClient) FetchUser(ctx context.Context, userID string) (*discordgo.User, error) {
	user, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch user %s", userID), err)
	}
	return user, nil
}

func (c *DiscordClient) FetchGuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch roles of guild %s", guildID), err)
	}
	return roles, nil
}

func (c *DiscordClient) FetchMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch member %s of guild %s", userID, guildID), err)
	}
	return member, nil
}

func (c *DiscordClient) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

func (c *DiscordClient) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to remove role %s from member %s: %w", roleID, userID, err)
	}
	return nil
}

func (c *DiscordClient) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add reaction %s to message %s: %w", emoji, messageID, err)
	}
	return nil
}

func (c *DiscordClient) FetchOriginalResponse(
	ctx context.Context,
	reply models.PendingReply,
) (*discordgo.Message, error) {
	message, err := c.session.InteractionResponse(interactionRef(reply), discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("failed to fetch original response for %s", reply.ID), err)
	}
	return message, nil
}

func (c *DiscordClient) EditOriginalResponse(ctx context.Context, reply models.PendingReply, content string) error {
	_, err := c.session.InteractionResponseEdit(
		interactionRef(reply),
		&discordgo.WebhookEdit{Content: &content},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to edit original response for %s: %w", reply.ID, err)
	}
	return nil
}

func (c *DiscordClient) ListCommands(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	commands, err := c.session.ApplicationCommands(c.applicationID, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapRESTError("failed to list application commands", err)
	}
	return commands, nil
}

func (c *DiscordClient) OverwriteCommands(
	ctx context.Context,
	commands []*discordgo.ApplicationCommand,
) ([]*discordgo.ApplicationCommand, error) {
	if c.applicationID == "" {
		return nil, fmt.Errorf("application id is not set: %w", core.ErrConfiguration)
	}
	registered, err := c.session.ApplicationCommandBulkOverwrite(c.applicationID, "", commands, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite application commands: %w", err)
	}
	return registered, nil
}

// interactionRef builds the minimal interaction discordgo needs to address webhook endpoints
func interactionRef(reply models.PendingReply) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:    reply.InteractionID,
		AppID: reply.ApplicationID,
		Token: reply.Token,
	}
}

// wrapRESTError tags read failures: 404 as not found, everything else as a transient fetch failure
func wrapRESTError(msg string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %w", msg, core.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, core.ErrTransientFetch, err)
}
