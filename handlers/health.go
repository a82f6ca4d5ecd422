package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"rolebot/clients"
)

// BotStatus reports whether the gateway session is up
type BotStatus interface {
	IsConnected() bool
}

type HealthHandler struct {
	botStatus   BotStatus
	relayClient clients.ChatRelayClient
}

func NewHealthHandler(botStatus BotStatus, relayClient clients.ChatRelayClient) *HealthHandler {
	return &HealthHandler{
		botStatus:   botStatus,
		relayClient: relayClient,
	}
}

// HandleHealth is the liveness probe
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	bot := "disconnected"
	if h.botStatus.IsConnected() {
		bot = "connected"
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"bot":       bot,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// HandleRelayStatus reports the relay channel's connection state
func (h *HealthHandler) HandleRelayStatus(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.relayClient.Status())
}

func (h *HealthHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/", h.HandleHealth).Methods("GET")
	router.HandleFunc("/relay/status", h.HandleRelayStatus).Methods("GET")
}
