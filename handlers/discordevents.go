package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gammazero/workerpool"

	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
	"rolebot/services"
	"rolebot/usecases/interactions"
)

const (
	rawReactionAdd    = "MESSAGE_REACTION_ADD"
	rawReactionRemove = "MESSAGE_REACTION_REMOVE"

	toggleTimeout   = 30 * time.Second
	registerTimeout = 30 * time.Second
)

// CommandRegistrar pushes the command set to the platform
type CommandRegistrar interface {
	RegisterCommands(ctx context.Context) ([]interactions.CommandSummary, error)
}

// TaskGuard wraps background work with panic recovery and alerting
type TaskGuard func(taskName string, task func() error) func() error

type rawReactionPayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	GuildID   string `json:"guild_id"`
	Emoji     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"emoji"`
}

// DiscordEventsHandler consumes the gateway event stream. Reactions arrive twice, as a
// raw event and as a normalized one; only the configured source drives role toggles.
type DiscordEventsHandler struct {
	session          *discordgo.Session
	roleMenuService  services.RoleMenuService
	commandRegistrar CommandRegistrar
	source           models.ReactionSource
	reactionQueue    *workerpool.WorkerPool
	guard            TaskGuard
	connected        atomic.Bool
}

func NewDiscordEventsHandler(
	session *discordgo.Session,
	roleMenuService services.RoleMenuService,
	commandRegistrar CommandRegistrar,
	source models.ReactionSource,
	guard TaskGuard,
) *DiscordEventsHandler {
	if guard == nil {
		guard = func(_ string, task func() error) func() error { return task }
	}
	handler := &DiscordEventsHandler{
		session:          session,
		roleMenuService:  roleMenuService,
		commandRegistrar: commandRegistrar,
		source:           source,
		reactionQueue:    workerpool.New(1), // Sequential processing
		guard:            guard,
	}

	// Handlers run in gateway order so the queue sees reactions in arrival order
	session.SyncEvents = true
	session.AddHandler(handler.handleRawEvent)
	session.AddHandler(handler.handleReactionAdded)
	session.AddHandler(handler.handleReactionRemoved)
	session.AddHandler(handler.handleReady)
	session.AddHandler(handler.handleResumed)
	session.AddHandler(handler.handleDisconnect)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers

	return handler
}

// StartBot opens the gateway connection and starts listening for events
func (h *DiscordEventsHandler) StartBot() error {
	if err := h.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	log.Info("🤖 Discord bot is now running, reactions from the %s channel drive roles", h.source)
	return nil
}

// StopBot closes the gateway connection and drains queued reactions
func (h *DiscordEventsHandler) StopBot() {
	if err := h.session.Close(); err != nil {
		log.Warn("⚠️ Failed to close Discord session: %v", err)
	}
	h.connected.Store(false)
	h.reactionQueue.StopWait()
}

// IsConnected reports whether the gateway session is ready
func (h *DiscordEventsHandler) IsConnected() bool {
	return h.connected.Load()
}

func (h *DiscordEventsHandler) handleRawEvent(s *discordgo.Session, e *discordgo.Event) {
	if e.Type != rawReactionAdd && e.Type != rawReactionRemove {
		return
	}

	var payload rawReactionPayload
	if err := json.Unmarshal(e.RawData, &payload); err != nil {
		log.Error("❌ Failed to decode raw %s event: %v", e.Type, err)
		return
	}

	h.route(models.ReactionEvent{
		GuildID:   payload.GuildID,
		ChannelID: payload.ChannelID,
		MessageID: payload.MessageID,
		UserID:    payload.UserID,
		Emoji:     payload.Emoji.Name,
		IsAdd:     e.Type == rawReactionAdd,
		Source:    models.ReactionSourceRaw,
	})
}

func (h *DiscordEventsHandler) handleReactionAdded(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	h.route(mapNormalizedReaction(r.MessageReaction, true))
}

func (h *DiscordEventsHandler) handleReactionRemoved(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.MessageReaction == nil {
		return
	}
	h.route(mapNormalizedReaction(r.MessageReaction, false))
}

func mapNormalizedReaction(r *discordgo.MessageReaction, isAdd bool) models.ReactionEvent {
	return models.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		IsAdd:     isAdd,
		Source:    models.ReactionSourceNormalized,
	}
}

// route queues authoritative reactions and only logs the duplicate channel
func (h *DiscordEventsHandler) route(event models.ReactionEvent) {
	if event.Source != h.source {
		log.Debug(
			"🔍 Audit: %s reaction %s %s by %s on message %s",
			event.Source, event.Action(), event.Emoji, event.UserID, event.MessageID,
		)
		metrics.ReactionEvents.WithLabelValues(string(event.Source), event.Action(), "audit").Inc()
		return
	}

	h.reactionQueue.Submit(func() {
		_ = h.guard("reaction toggle", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), toggleTimeout)
			defer cancel()

			if err := h.roleMenuService.ToggleRole(ctx, event); err != nil {
				log.Error("❌ Reaction %s on message %s dropped (%s): %v",
					event.Action(), event.MessageID, core.Classify(err), err)
				return err
			}
			return nil
		})()
	})
}

func (h *DiscordEventsHandler) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	h.connected.Store(true)
	if r.User != nil {
		log.Info("🤖 Bot connected as %s (%s)", r.User.Username, r.User.ID)
	}

	go func() {
		_ = h.guard("register commands", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
			defer cancel()

			if _, err := h.commandRegistrar.RegisterCommands(ctx); err != nil {
				log.Error("❌ Failed to register commands on ready: %v", err)
				return err
			}
			return nil
		})()
	}()
}

func (h *DiscordEventsHandler) handleResumed(s *discordgo.Session, r *discordgo.Resumed) {
	h.connected.Store(true)
	log.Info("🔄 Discord session resumed")
}

func (h *DiscordEventsHandler) handleDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	h.connected.Store(false)
	log.Warn("⚠️ Discord session disconnected, waiting for reconnect")
}
