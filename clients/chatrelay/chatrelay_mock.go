package chatrelay

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rolebot/models"
)

// MockChatRelayClient implements the clients.ChatRelayClient interface for testing
type MockChatRelayClient struct {
	mock.Mock
}

func (m *MockChatRelayClient) Init(ctx context.Context) (models.RelayStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.RelayStatus), args.Error(1)
}

func (m *MockChatRelayClient) SendMessage(ctx context.Context, msg models.RelayMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockChatRelayClient) Status() models.RelayStatus {
	args := m.Called()
	return args.Get(0).(models.RelayStatus)
}

func (m *MockChatRelayClient) Close() {
	m.Called()
}
