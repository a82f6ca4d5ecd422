package rolemenu

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"

	"rolebot/models"
)

// MockRoleMenuService implements the services.RoleMenuService interface for testing
type MockRoleMenuService struct {
	mock.Mock
}

func (m *MockRoleMenuService) ToggleRole(ctx context.Context, event models.ReactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRoleMenuService) RenderMenu() *discordgo.MessageEmbed {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*discordgo.MessageEmbed)
}

func (m *MockRoleMenuService) DecorateMenu(ctx context.Context, reply models.PendingReply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}
