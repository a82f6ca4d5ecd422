package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"rolebot/core"
	"rolebot/core/log"
)

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration
	postWebhook   func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewErrorAlertMiddleware(config SlackAlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute, // same error at most once per 10min
		postWebhook:   slack.PostWebhookContext,
	}
}

// HTTPMiddleware recovers panics in HTTP handlers and alerts on them
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.reportPanic(fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path), rec)
				writeJSONError(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WrapBackgroundTask recovers panics in task and alerts on returned errors
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) func() error {
	return func() (err error) {
		taskContext := fmt.Sprintf("Background task: %s", taskName)
		defer func() {
			if rec := recover(); rec != nil {
				m.reportPanic(taskContext, rec)
				err = fmt.Errorf("panic in %s: %v", taskName, rec)
			}
		}()

		if err := task(); err != nil {
			m.alertOnError(err, taskContext)
			return err
		}
		return nil
	}
}

// alertOnError alerts on unexpected failures; user-caused and expected ones are skipped
func (m *ErrorAlertMiddleware) alertOnError(err error, alertContext string) {
	switch core.Classify(err) {
	case core.ErrorClassValidation, core.ErrorClassNotFound, core.ErrorClassBadRequest:
		return
	}

	errorMsg := fmt.Sprintf("%s: %v", alertContext, err)
	if !m.shouldAlert(errorMsg) {
		return
	}
	go m.sendSlackAlert(errorMsg, alertContext)
}

func (m *ErrorAlertMiddleware) reportPanic(alertContext string, rec any) {
	errorMsg := fmt.Sprintf("%s: PANIC - %v", alertContext, rec)
	log.Error("❌ %s", errorMsg)
	if !m.shouldAlert(errorMsg) {
		return
	}
	go m.sendSlackAlert(errorMsg, alertContext+" (PANIC)")
}

// shouldAlert deduplicates alerts by message hash within the cooldown
func (m *ErrorAlertMiddleware) shouldAlert(errorMsg string) bool {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lastAlert, exists := m.alertedErrors[hash]; exists && time.Since(lastAlert) < m.alertCooldown {
		return false
	}
	m.alertedErrors[hash] = time.Now()
	return true
}

func (m *ErrorAlertMiddleware) sendSlackAlert(errorMsg, alertContext string) {
	if m.config.WebhookURL == "" {
		return // alerts disabled
	}

	envPrefix := ""
	if m.config.Environment == "dev" {
		envPrefix = "[dev] "
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType,
			fmt.Sprintf("🚨 %s[%s] Error Alert", envPrefix, m.config.AppName),
			true, false,
		)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", m.config.AppName), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", m.config.Environment), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context:* %s", alertContext), false, false),
		}, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Error:*\n```%s```", errorMsg), false, false),
			nil, nil,
		),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL), false, false),
			nil, nil,
		))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := &slack.WebhookMessage{
		Text:   errorMsg,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
	if err := m.postWebhook(ctx, m.config.WebhookURL, msg); err != nil {
		log.Error("❌ Failed to send Slack alert: %v", err)
	}
}
