package deferred

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"

	"rolebot/models"
	"rolebot/services"
)

// MockDeferredResponder implements the services.DeferredResponderService interface for testing
type MockDeferredResponder struct {
	mock.Mock
}

func (m *MockDeferredResponder) Defer(
	interaction *discordgo.Interaction,
	command, ack string,
	task services.DeferredTask,
) models.InteractionReply {
	args := m.Called(interaction, command, ack, task)
	return args.Get(0).(models.InteractionReply)
}

func (m *MockDeferredResponder) AfterReply(
	interaction *discordgo.Interaction,
	command string,
	response *discordgo.InteractionResponse,
	fn services.DeferredContinuation,
) models.InteractionReply {
	args := m.Called(interaction, command, response, fn)
	return args.Get(0).(models.InteractionReply)
}

func (m *MockDeferredResponder) Stop() {
	m.Called()
}
