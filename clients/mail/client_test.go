package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"rolebot/config"
	"rolebot/core"
	"rolebot/models"
)

func testConfig() config.MailConfig {
	return config.MailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "secret",
	}
}

func testMessage() models.MailMessage {
	return models.MailMessage{
		From:    "organizer@example.com",
		To:      "guest@example.com",
		Subject: "Weekly sync",
		Body:    "Nos vemos a las 10",
	}
}

func TestSendMail(t *testing.T) {
	t.Run("returns generated message id", func(t *testing.T) {
		var sent *gomail.Msg
		client := &MailClient{
			cfg: testConfig(),
			send: func(ctx context.Context, c *gomail.Client, msg *gomail.Msg) error {
				sent = msg
				return nil
			},
		}

		id, err := client.SendMail(context.Background(), testMessage())

		require.NoError(t, err)
		require.NotNil(t, sent)
		assert.NotEmpty(t, id)
		assert.NotContains(t, id, "<")
		assert.Equal(t, []string{"Weekly sync"}, sent.GetGenHeader(gomail.HeaderSubject))
	})

	t.Run("wraps transport failure as relay error", func(t *testing.T) {
		client := &MailClient{
			cfg: testConfig(),
			send: func(ctx context.Context, c *gomail.Client, msg *gomail.Msg) error {
				return errors.New("535 authentication failed")
			},
		}

		_, err := client.SendMail(context.Background(), testMessage())

		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrRelay))
		assert.Contains(t, err.Error(), "535")
	})

	t.Run("rejects invalid recipient", func(t *testing.T) {
		client := &MailClient{
			cfg: testConfig(),
			send: func(ctx context.Context, c *gomail.Client, msg *gomail.Msg) error {
				t.Fatal("send must not be called")
				return nil
			},
		}
		msg := testMessage()
		msg.To = "not an address"

		_, err := client.SendMail(context.Background(), msg)

		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrValidation))
	})

	t.Run("fails when smtp is not configured", func(t *testing.T) {
		client := NewMailClient(config.MailConfig{})

		_, err := client.SendMail(context.Background(), testMessage())

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotConfigured))
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	})
}
