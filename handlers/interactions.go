package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"

	"rolebot/appctx"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/middleware"
	"rolebot/models"
)

// InteractionDispatcher produces the synchronous reply for a verified interaction
type InteractionDispatcher interface {
	Dispatch(ctx context.Context, interaction *discordgo.Interaction) (models.InteractionReply, error)
}

type InteractionsHandler struct {
	dispatcher          InteractionDispatcher
	signatureMiddleware *middleware.InteractionSignatureMiddleware
}

func NewInteractionsHandler(
	dispatcher InteractionDispatcher,
	signatureMiddleware *middleware.InteractionSignatureMiddleware,
) *InteractionsHandler {
	return &InteractionsHandler{
		dispatcher:          dispatcher,
		signatureMiddleware: signatureMiddleware,
	}
}

// HandleInteraction answers a signature-verified interaction and then starts its follow-up
func (h *InteractionsHandler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	requestID := appctx.GetRequestID(r.Context())
	interaction, ok := appctx.GetInteraction(r.Context())
	if !ok {
		log.Error("❌ Interaction handler reached without a verified interaction (request %s)", requestID)
		writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid interaction payload"})
		return
	}

	reply, err := h.dispatcher.Dispatch(r.Context(), interaction)
	if err != nil {
		if errors.Is(err, core.ErrBadRequest) {
			log.Warn("⚠️ Rejected malformed interaction (request %s): %v", requestID, err)
			writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Error("❌ Failed to dispatch interaction %s (request %s): %v", interaction.ID, requestID, err)
		writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSONResponse(w, http.StatusOK, reply.Response)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if reply.HasFollowUp() {
		reply.FollowUp()
	}
}

func (h *InteractionsHandler) SetupEndpoints(router *mux.Router) {
	log.Info("🚀 Registering interactions endpoint")

	router.HandleFunc("/interactions", h.signatureMiddleware.WithSignature(h.HandleInteraction)).Methods("POST")

	log.Info("✅ Interactions endpoint registered successfully")
}
