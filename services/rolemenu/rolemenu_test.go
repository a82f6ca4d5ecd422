package rolemenu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rolebot/clients/discord"
	"rolebot/core"
	"rolebot/models"
)

const (
	testBotID     = "bot-1"
	testUserID    = "user-1"
	testGuildID   = "guild-1"
	testChannelID = "channel-1"
	testMessageID = "message-1"
	chiefRoleID   = "role-chief"
	guestRoleID   = "role-guest"
)

func newTestService(t *testing.T, client *discord.MockDiscordClient) *RoleMenuService {
	t.Helper()
	bindings, err := NewBindings(DefaultBindings())
	require.NoError(t, err)
	return NewRoleMenuService(client, bindings, "")
}

func menuMessage() *discordgo.Message {
	return &discordgo.Message{
		ID:        testMessageID,
		ChannelID: testChannelID,
		Embeds:    []*discordgo.MessageEmbed{{Title: DefaultMenuTitle}},
	}
}

func guildRoles() []*discordgo.Role {
	return []*discordgo.Role{
		{ID: "role-everyone", Name: "@everyone"},
		{ID: chiefRoleID, Name: "JEFE DE REUNION"},
		{ID: guestRoleID, Name: "PARTICIPANTE DE REUNION"},
	}
}

func reactionEvent(emoji string, isAdd bool) models.ReactionEvent {
	return models.ReactionEvent{
		ChannelID: testChannelID,
		MessageID: testMessageID,
		UserID:    testUserID,
		Emoji:     emoji,
		IsAdd:     isAdd,
		Source:    models.ReactionSourceRaw,
	}
}

// expectResolution sets up the happy path up to (and including) the member fetch
func expectResolution(client *discord.MockDiscordClient, memberRoles []string) {
	client.On("BotUserID").Return(testBotID)
	client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
	client.On("FetchChannel", mock.Anything, testChannelID).
		Return(&discordgo.Channel{ID: testChannelID, GuildID: testGuildID}, nil)
	client.On("FetchUser", mock.Anything, testUserID).
		Return(&discordgo.User{ID: testUserID, Username: "ana"}, nil)
	client.On("FetchGuildRoles", mock.Anything, testGuildID).Return(guildRoles(), nil)
	client.On("FetchMember", mock.Anything, testGuildID, testUserID).
		Return(&discordgo.Member{User: &discordgo.User{ID: testUserID}, Roles: memberRoles}, nil)
}

func TestToggleRole(t *testing.T) {
	ctx := context.Background()

	t.Run("grants bound role on add", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		expectResolution(client, nil)
		client.On("AddMemberRole", mock.Anything, testGuildID, testUserID, chiefRoleID).Return(nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("revokes bound role on remove", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		expectResolution(client, []string{chiefRoleID})
		client.On("RemoveMemberRole", mock.Anything, testGuildID, testUserID, chiefRoleID).Return(nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", false))

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("add of held role is a no-op", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		expectResolution(client, []string{guestRoleID})
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("🙋‍♂️", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "AddMemberRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remove of unheld role is a no-op", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		expectResolution(client, []string{guestRoleID})
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", false))

		require.NoError(t, err)
		client.AssertNotCalled(t, "RemoveMemberRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignores the bot's own reactions without fetching", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		service := newTestService(t, client)
		event := reactionEvent("👔", true)
		event.UserID = testBotID

		err := service.ToggleRole(ctx, event)

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignores messages without the menu title", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		other := menuMessage()
		other.Embeds[0].Title = "Otro embed"
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(other, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchChannel", mock.Anything, mock.Anything)
	})

	t.Run("ignores messages without embeds", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).
			Return(&discordgo.Message{ID: testMessageID}, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchChannel", mock.Anything, mock.Anything)
	})

	t.Run("ignores messages outside a guild", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
		client.On("FetchChannel", mock.Anything, testChannelID).
			Return(&discordgo.Channel{ID: testChannelID}, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything)
	})

	t.Run("ignores other bots", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
		client.On("FetchChannel", mock.Anything, testChannelID).
			Return(&discordgo.Channel{ID: testChannelID, GuildID: testGuildID}, nil)
		client.On("FetchUser", mock.Anything, testUserID).
			Return(&discordgo.User{ID: testUserID, Bot: true}, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchGuildRoles", mock.Anything, mock.Anything)
	})

	t.Run("ignores unbound emoji", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
		client.On("FetchChannel", mock.Anything, testChannelID).
			Return(&discordgo.Channel{ID: testChannelID, GuildID: testGuildID}, nil)
		client.On("FetchUser", mock.Anything, testUserID).
			Return(&discordgo.User{ID: testUserID}, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("🍕", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchGuildRoles", mock.Anything, mock.Anything)
	})

	t.Run("missing guild role is a no-op", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
		client.On("FetchChannel", mock.Anything, testChannelID).
			Return(&discordgo.Channel{ID: testChannelID, GuildID: testGuildID}, nil)
		client.On("FetchUser", mock.Anything, testUserID).
			Return(&discordgo.User{ID: testUserID}, nil)
		client.On("FetchGuildRoles", mock.Anything, testGuildID).
			Return([]*discordgo.Role{{ID: "role-everyone", Name: "@everyone"}}, nil)
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.NoError(t, err)
		client.AssertNotCalled(t, "FetchMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns fetch failures", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("BotUserID").Return(testBotID)
		client.On("FetchMessage", mock.Anything, testChannelID, testMessageID).
			Return(nil, fmt.Errorf("gateway timeout: %w", core.ErrTransientFetch))
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.Error(t, err)
		assert.Equal(t, core.ErrorClassFetch, core.Classify(err))
	})

	t.Run("returns mutation failures", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		expectResolution(client, nil)
		client.On("AddMemberRole", mock.Anything, testGuildID, testUserID, chiefRoleID).
			Return(errors.New("missing permissions"))
		service := newTestService(t, client)

		err := service.ToggleRole(ctx, reactionEvent("👔", true))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing permissions")
	})
}

// memberStateClient keeps the member's roles so sequences of toggles can be observed
type memberStateClient struct {
	*discord.MockDiscordClient
	mutex sync.Mutex
	roles []string
}

func (c *memberStateClient) FetchMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return &discordgo.Member{User: &discordgo.User{ID: userID}, Roles: slices.Clone(c.roles)}, nil
}

func (c *memberStateClient) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !slices.Contains(c.roles, roleID) {
		c.roles = append(c.roles, roleID)
	}
	return nil
}

func (c *memberStateClient) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.roles = slices.DeleteFunc(c.roles, func(id string) bool { return id == roleID })
	return nil
}

func TestToggleRole_AddThenRemoveConverges(t *testing.T) {
	mockClient := &discord.MockDiscordClient{}
	mockClient.On("BotUserID").Return(testBotID)
	mockClient.On("FetchMessage", mock.Anything, testChannelID, testMessageID).Return(menuMessage(), nil)
	mockClient.On("FetchChannel", mock.Anything, testChannelID).
		Return(&discordgo.Channel{ID: testChannelID, GuildID: testGuildID}, nil)
	mockClient.On("FetchUser", mock.Anything, testUserID).
		Return(&discordgo.User{ID: testUserID, Username: "ana"}, nil)
	mockClient.On("FetchGuildRoles", mock.Anything, testGuildID).Return(guildRoles(), nil)

	client := &memberStateClient{MockDiscordClient: mockClient}
	bindings, err := NewBindings(DefaultBindings())
	require.NoError(t, err)
	service := NewRoleMenuService(client, bindings, "")
	ctx := context.Background()

	require.NoError(t, service.ToggleRole(ctx, reactionEvent("👔", true)))
	assert.Equal(t, []string{chiefRoleID}, client.roles)

	require.NoError(t, service.ToggleRole(ctx, reactionEvent("👔", true)))
	assert.Equal(t, []string{chiefRoleID}, client.roles)

	require.NoError(t, service.ToggleRole(ctx, reactionEvent("👔", false)))
	assert.Empty(t, client.roles)

	require.NoError(t, service.ToggleRole(ctx, reactionEvent("👔", false)))
	assert.Empty(t, client.roles)
}

func TestRenderMenu(t *testing.T) {
	service := newTestService(t, &discord.MockDiscordClient{})

	embed := service.RenderMenu()

	assert.Equal(t, DefaultMenuTitle, embed.Title)
	assert.Equal(t, menuColor, embed.Color)
	assert.Contains(t, embed.Description, "👔 - **JEFE DE REUNION**")
	assert.Contains(t, embed.Description, "🙋‍♂️ - **PARTICIPANTE DE REUNION**")
	assert.Less(t, strings.Index(embed.Description, "👔"), strings.Index(embed.Description, "🙋‍♂️"))
	assert.True(t, service.IsMenuMessage(&discordgo.Message{Embeds: []*discordgo.MessageEmbed{embed}}))
}

func TestRenderMenu_CustomTitle(t *testing.T) {
	bindings, err := NewBindings(DefaultBindings())
	require.NoError(t, err)
	service := NewRoleMenuService(&discord.MockDiscordClient{}, bindings, "Roles")

	assert.Equal(t, "Roles", service.RenderMenu().Title)
	assert.False(t, service.IsMenuMessage(menuMessage()))
}

func TestDecorateMenu(t *testing.T) {
	ctx := context.Background()
	reply := models.PendingReply{ApplicationID: "app-1", InteractionID: "interaction-1", Token: "token"}

	t.Run("adds reactions in binding order", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("FetchOriginalResponse", mock.Anything, reply).Return(menuMessage(), nil)
		var added []string
		client.On("AddReaction", mock.Anything, testChannelID, testMessageID, mock.Anything).
			Run(func(args mock.Arguments) { added = append(added, args.String(3)) }).
			Return(nil)
		service := newTestService(t, client)

		err := service.DecorateMenu(ctx, reply)

		require.NoError(t, err)
		assert.Equal(t, []string{"👔", "🙋‍♂️"}, added)
	})

	t.Run("skips reactions the bot already added", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		message := menuMessage()
		message.Reactions = []*discordgo.MessageReactions{
			{Count: 1, Me: true, Emoji: &discordgo.Emoji{Name: "👔"}},
		}
		client.On("FetchOriginalResponse", mock.Anything, reply).Return(message, nil)
		client.On("AddReaction", mock.Anything, testChannelID, testMessageID, "🙋‍♂️").Return(nil).Once()
		service := newTestService(t, client)

		err := service.DecorateMenu(ctx, reply)

		require.NoError(t, err)
		client.AssertExpectations(t)
		client.AssertNumberOfCalls(t, "AddReaction", 1)
	})

	t.Run("rejects a response that is not a menu", func(t *testing.T) {
		client := &discord.MockDiscordClient{}
		client.On("FetchOriginalResponse", mock.Anything, reply).
			Return(&discordgo.Message{ID: testMessageID}, nil)
		service := newTestService(t, client)

		err := service.DecorateMenu(ctx, reply)

		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrValidation))
	})
}

func TestDecorateMenu_RetriesUntilResponseExists(t *testing.T) {
	originalResponseRetryDelay = time.Millisecond
	t.Cleanup(func() { originalResponseRetryDelay = time.Second })

	reply := models.PendingReply{ApplicationID: "app-1", InteractionID: "interaction-1", Token: "token"}
	client := &discord.MockDiscordClient{}
	client.On("FetchOriginalResponse", mock.Anything, reply).
		Return(nil, fmt.Errorf("unknown message: %w", core.ErrNotFound)).Once()
	client.On("FetchOriginalResponse", mock.Anything, reply).Return(menuMessage(), nil).Once()
	client.On("AddReaction", mock.Anything, testChannelID, testMessageID, mock.Anything).Return(nil)
	service := newTestService(t, client)

	err := service.DecorateMenu(context.Background(), reply)

	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "FetchOriginalResponse", 2)
	client.AssertNumberOfCalls(t, "AddReaction", 2)
}
