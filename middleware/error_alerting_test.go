package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolebot/core"
)

type recordedAlerts struct {
	mutex    sync.Mutex
	messages []*slack.WebhookMessage
	sent     chan struct{}
}

func newAlertMiddleware(webhookURL string) (*ErrorAlertMiddleware, *recordedAlerts) {
	recorded := &recordedAlerts{sent: make(chan struct{}, 10)}
	m := NewErrorAlertMiddleware(SlackAlertConfig{
		WebhookURL:  webhookURL,
		Environment: "dev",
		AppName:     "rolebot",
	})
	m.postWebhook = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		recorded.mutex.Lock()
		recorded.messages = append(recorded.messages, msg)
		recorded.mutex.Unlock()
		recorded.sent <- struct{}{}
		return nil
	}
	return m, recorded
}

func (r *recordedAlerts) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.sent:
	case <-time.After(time.Second):
		t.Fatal("expected an alert to be sent")
	}
}

func (r *recordedAlerts) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.messages)
}

func TestHTTPMiddleware_RecoversPanics(t *testing.T) {
	m, recorded := newAlertMiddleware("https://hooks.slack.test/alerts")
	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	recorded.wait(t)
	require.Equal(t, 1, recorded.count())
	assert.Contains(t, recorded.messages[0].Text, "HTTP GET /commands: PANIC - boom")
	require.NotNil(t, recorded.messages[0].Blocks)
	assert.NotEmpty(t, recorded.messages[0].Blocks.BlockSet)
}

func TestWrapBackgroundTask(t *testing.T) {
	t.Run("alerts once per error within cooldown", func(t *testing.T) {
		m, recorded := newAlertMiddleware("https://hooks.slack.test/alerts")
		task := m.WrapBackgroundTask("deferred ai/email", func() error {
			return fmt.Errorf("smtp down: %w", core.ErrRelay)
		})

		assert.Error(t, task())
		recorded.wait(t)
		assert.Error(t, task())

		assert.Equal(t, 1, recorded.count())
	})

	t.Run("skips expected user errors", func(t *testing.T) {
		m, recorded := newAlertMiddleware("https://hooks.slack.test/alerts")
		task := m.WrapBackgroundTask("deferred ai/email", func() error {
			return fmt.Errorf("bad address: %w", core.ErrValidation)
		})

		assert.Error(t, task())

		assert.Equal(t, 0, recorded.count())
	})

	t.Run("converts panics to errors", func(t *testing.T) {
		m, recorded := newAlertMiddleware("https://hooks.slack.test/alerts")
		task := m.WrapBackgroundTask("reaction toggle", func() error {
			panic(errors.New("nil member"))
		})

		var err error
		require.NotPanics(t, func() { err = task() })

		assert.ErrorContains(t, err, "panic in reaction toggle")
		recorded.wait(t)
	})

	t.Run("passes through success", func(t *testing.T) {
		m, recorded := newAlertMiddleware("https://hooks.slack.test/alerts")

		assert.NoError(t, m.WrapBackgroundTask("noop", func() error { return nil })())
		assert.Equal(t, 0, recorded.count())
	})
}

func TestSendSlackAlert_DisabledWithoutWebhook(t *testing.T) {
	m, recorded := newAlertMiddleware("")

	m.sendSlackAlert("boom", "test")

	assert.Equal(t, 0, recorded.count())
}
