package mail

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rolebot/models"
)

// MockMailClient implements the clients.MailClient interface for testing
type MockMailClient struct {
	mock.Mock
}

func (m *MockMailClient) SendMail(ctx context.Context, msg models.MailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}
