package deferred

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gammazero/workerpool"

	"rolebot/clients"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
	"rolebot/services"
	"rolebot/utils"
)

const (
	// Interaction tokens expire 15 minutes after creation
	defaultTaskTimeout = 14 * time.Minute
	editTimeout        = 10 * time.Second
	maxContentLength   = 2000
)

// TaskGuard wraps background work with panic recovery and alerting
type TaskGuard func(taskName string, task func() error) func() error

type DeferredResponder struct {
	discordClient clients.DiscordClient
	pool          *workerpool.WorkerPool
	guard         TaskGuard
	taskTimeout   time.Duration
}

var _ services.DeferredResponderService = (*DeferredResponder)(nil)

func NewDeferredResponder(discordClient clients.DiscordClient, workers int, guard TaskGuard) *DeferredResponder {
	utils.AssertInvariant(workers > 0, "deferred responder needs at least one worker")
	if guard == nil {
		guard = func(_ string, task func() error) func() error { return task }
	}
	return &DeferredResponder{
		discordClient: discordClient,
		pool:          workerpool.New(workers),
		guard:         guard,
		taskTimeout:   defaultTaskTimeout,
	}
}

// Defer acknowledges the interaction with an ephemeral message and returns a follow-up
// that runs task in the background and edits the acknowledgement with its outcome
func (d *DeferredResponder) Defer(
	interaction *discordgo.Interaction,
	command, ack string,
	task services.DeferredTask,
) models.InteractionReply {
	reply := newPendingReply(interaction, command)
	log.Info("📋 Deferring %s as pending reply %s", command, reply.ID)

	return models.InteractionReply{
		Response: EphemeralMessage(ack),
		FollowUp: func() {
			d.pool.Submit(func() {
				_ = d.guard("deferred "+command, func() error {
					return d.complete(reply, task)
				})()
			})
		},
	}
}

// AfterReply answers with response and then runs fn in the background. fn must not
// edit the original response.
func (d *DeferredResponder) AfterReply(
	interaction *discordgo.Interaction,
	command string,
	response *discordgo.InteractionResponse,
	fn services.DeferredContinuation,
) models.InteractionReply {
	reply := newPendingReply(interaction, command)

	return models.InteractionReply{
		Response: response,
		FollowUp: func() {
			d.pool.Submit(func() {
				_ = d.guard("continuation "+command, func() error {
					ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
					defer cancel()

					if err := fn(ctx, reply); err != nil {
						log.Error("❌ Continuation of %s failed (%s): %v", command, core.Classify(err), err)
						return err
					}
					return nil
				})()
			})
		},
	}
}

// Stop waits for queued tasks to finish
func (d *DeferredResponder) Stop() {
	log.Info("📋 Draining deferred responder")
	d.pool.StopWait()
}

func (d *DeferredResponder) complete(reply models.PendingReply, task services.DeferredTask) error {
	log.Info("📋 Starting to run deferred %s for pending reply %s", reply.Command, reply.ID)

	taskCtx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
	content, taskErr := task(taskCtx)
	cancel()

	if taskErr != nil {
		log.Error("❌ Deferred %s failed (%s): %v", reply.Command, core.Classify(taskErr), taskErr)
		content = FailureMessage(taskErr)
	}

	editCtx, cancelEdit := context.WithTimeout(context.Background(), editTimeout)
	defer cancelEdit()

	if err := d.discordClient.EditOriginalResponse(editCtx, reply, utils.Truncate(content, maxContentLength)); err != nil {
		metrics.FollowUpEdits.WithLabelValues("failed").Inc()
		log.Error("❌ Failed to edit original response for pending reply %s: %v", reply.ID, err)
		return nil
	}

	outcome := "success"
	if taskErr != nil {
		outcome = "failure"
	}
	metrics.FollowUpEdits.WithLabelValues(outcome).Inc()
	log.Info("📋 Completed successfully - edited original response for pending reply %s", reply.ID)
	return taskErr
}

func newPendingReply(interaction *discordgo.Interaction, command string) models.PendingReply {
	return models.PendingReply{
		ID:            core.NewID(core.PendingReplyPrefix),
		ApplicationID: interaction.AppID,
		InteractionID: interaction.ID,
		Token:         interaction.Token,
		Command:       command,
		CreatedAt:     time.Now(),
	}
}

// EphemeralMessage builds a type 4 response visible only to the invoking user
func EphemeralMessage(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// FailureMessage renders a task error for the user
func FailureMessage(err error) string {
	return fmt.Sprintf("❌ Error: %v", err)
}
