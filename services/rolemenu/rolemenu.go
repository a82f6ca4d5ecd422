package rolemenu

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"rolebot/clients"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
)

const menuColor = 0x5865F2

const originalResponseAttempts = 3

var originalResponseRetryDelay = time.Second

// Toggle outcomes, also used as metric labels
const (
	outcomeGranted       = "granted"
	outcomeRevoked       = "revoked"
	outcomeUnchanged     = "unchanged"
	outcomeIgnored       = "ignored"
	outcomeMisconfigured = "misconfigured"
	outcomeFailed        = "failed"
)

type RoleMenuService struct {
	discordClient clients.DiscordClient
	bindings      *Bindings
	title         string
}

func NewRoleMenuService(discordClient clients.DiscordClient, bindings *Bindings, title string) *RoleMenuService {
	if title == "" {
		title = DefaultMenuTitle
	}
	return &RoleMenuService{
		discordClient: discordClient,
		bindings:      bindings,
		title:         title,
	}
}

// ToggleRole grants or revokes the role bound to the reacted emoji. All state is
// re-fetched from the API; the event itself only identifies what to look at.
func (s *RoleMenuService) ToggleRole(ctx context.Context, event models.ReactionEvent) error {
	log.Info(
		"📋 Starting to process reaction %s of %s by user %s on message %s",
		event.Action(), event.Emoji, event.UserID, event.MessageID,
	)

	outcome, err := s.toggle(ctx, event)
	metrics.ReactionEvents.WithLabelValues(string(event.Source), event.Action(), outcome).Inc()
	if err != nil {
		return fmt.Errorf("failed to %s role for user %s: %w", event.Action(), event.UserID, err)
	}

	log.Info("📋 Completed successfully - reaction %s by user %s: %s", event.Action(), event.UserID, outcome)
	return nil
}

func (s *RoleMenuService) toggle(ctx context.Context, event models.ReactionEvent) (string, error) {
	if botID := s.discordClient.BotUserID(); botID != "" && event.UserID == botID {
		log.Debug("Ignoring reaction from the bot itself")
		return outcomeIgnored, nil
	}

	message, err := s.discordClient.FetchMessage(ctx, event.ChannelID, event.MessageID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to fetch message %s: %w", event.MessageID, err)
	}
	if !s.IsMenuMessage(message) {
		log.Debug("Message %s is not a role menu, ignoring", event.MessageID)
		return outcomeIgnored, nil
	}

	channel, err := s.discordClient.FetchChannel(ctx, event.ChannelID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to fetch channel %s: %w", event.ChannelID, err)
	}
	guildID := channel.GuildID
	if guildID == "" {
		log.Info("📋 Role menu message %s is outside a guild, ignoring", event.MessageID)
		return outcomeIgnored, nil
	}

	user, err := s.discordClient.FetchUser(ctx, event.UserID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to fetch user %s: %w", event.UserID, err)
	}
	if user.Bot {
		log.Debug("Ignoring reaction from bot user %s", user.ID)
		return outcomeIgnored, nil
	}

	roleName, ok := s.bindings.RoleFor(event.Emoji).Get()
	if !ok {
		log.Debug("Emoji %s has no role binding, ignoring", event.Emoji)
		return outcomeIgnored, nil
	}

	roles, err := s.discordClient.FetchGuildRoles(ctx, guildID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to fetch roles for guild %s: %w", guildID, err)
	}
	role, ok := findRoleByName(roles, roleName).Get()
	if !ok {
		log.Warn(
			"⚠️ Role %q not found in guild %s (%s), create it or fix the bindings",
			roleName, guildID, core.ErrorClassConfiguration,
		)
		return outcomeMisconfigured, nil
	}

	member, err := s.discordClient.FetchMember(ctx, guildID, user.ID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to fetch member %s: %w", user.ID, err)
	}
	held := slices.Contains(member.Roles, role.ID)

	if event.IsAdd {
		if held {
			log.Info("📋 User %s already has role %s", user.Username, roleName)
			return outcomeUnchanged, nil
		}
		if err := s.discordClient.AddMemberRole(ctx, guildID, user.ID, role.ID); err != nil {
			return outcomeFailed, fmt.Errorf("failed to grant role %s: %w", roleName, err)
		}
		log.Info("✅ Role %s granted to %s", roleName, user.Username)
		return outcomeGranted, nil
	}

	if !held {
		log.Info("📋 User %s does not have role %s", user.Username, roleName)
		return outcomeUnchanged, nil
	}
	if err := s.discordClient.RemoveMemberRole(ctx, guildID, user.ID, role.ID); err != nil {
		return outcomeFailed, fmt.Errorf("failed to revoke role %s: %w", roleName, err)
	}
	log.Info("✅ Role %s revoked from %s", roleName, user.Username)
	return outcomeRevoked, nil
}

// IsMenuMessage reports whether the first embed of a message carries the menu title
func (s *RoleMenuService) IsMenuMessage(message *discordgo.Message) bool {
	if message == nil || len(message.Embeds) == 0 || message.Embeds[0] == nil {
		return false
	}
	return message.Embeds[0].Title == s.title
}

// RenderMenu builds the role-menu embed listing every binding
func (s *RoleMenuService) RenderMenu() *discordgo.MessageEmbed {
	var description strings.Builder
	description.WriteString("Reacciona con los emojis para obtener tu rol:\n\n")
	for _, binding := range s.bindings.All() {
		fmt.Fprintf(&description, "%s - **%s**\n", binding.Emoji, binding.RoleName)
	}
	description.WriteString("\nToca el emoji para obtener el rol, vuelve a tocarlo para quitártelo.")

	return &discordgo.MessageEmbed{
		Title:       s.title,
		Description: description.String(),
		Color:       menuColor,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// DecorateMenu adds one reaction per binding to the role menu posted as the
// interaction's original response
func (s *RoleMenuService) DecorateMenu(ctx context.Context, reply models.PendingReply) error {
	log.Info("📋 Starting to add role menu reactions for interaction %s", reply.InteractionID)

	message, err := s.fetchOriginalResponse(ctx, reply)
	if err != nil {
		return fmt.Errorf("failed to fetch role menu message: %w", err)
	}
	if !s.IsMenuMessage(message) {
		return fmt.Errorf("original response %s is not a role menu: %w", message.ID, core.ErrValidation)
	}

	added := 0
	for _, binding := range s.bindings.All() {
		if hasOwnReaction(message, binding.Emoji) {
			continue
		}
		if err := s.discordClient.AddReaction(ctx, message.ChannelID, message.ID, binding.Emoji); err != nil {
			return fmt.Errorf("failed to add reaction %s: %w", binding.Emoji, err)
		}
		added++
	}

	log.Info("📋 Completed successfully - added %d reactions to role menu %s", added, message.ID)
	return nil
}

// fetchOriginalResponse retries briefly while the platform has not yet stored the
// response we just sent
func (s *RoleMenuService) fetchOriginalResponse(ctx context.Context, reply models.PendingReply) (*discordgo.Message, error) {
	var lastErr error
	for attempt := 0; attempt < originalResponseAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(originalResponseRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		message, err := s.discordClient.FetchOriginalResponse(ctx, reply)
		if err == nil {
			return message, nil
		}
		if !core.IsNotFoundError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func findRoleByName(roles []*discordgo.Role, name string) mo.Option[*discordgo.Role] {
	for _, role := range roles {
		if role != nil && role.Name == name {
			return mo.Some(role)
		}
	}
	return mo.None[*discordgo.Role]()
}

func hasOwnReaction(message *discordgo.Message, emoji string) bool {
	for _, reaction := range message.Reactions {
		if reaction == nil || reaction.Emoji == nil || !reaction.Me {
			continue
		}
		if normalizeEmoji(reaction.Emoji.Name) == normalizeEmoji(emoji) {
			return true
		}
	}
	return false
}
