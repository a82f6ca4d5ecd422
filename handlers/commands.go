package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"rolebot/core/log"
	"rolebot/usecases/interactions"
)

// CommandSync lists and registers the bot's application commands
type CommandSync interface {
	RegisterCommands(ctx context.Context) ([]interactions.CommandSummary, error)
	ListCommands(ctx context.Context) ([]interactions.CommandSummary, error)
}

type CommandsHandler struct {
	commandSync CommandSync
}

func NewCommandsHandler(commandSync CommandSync) *CommandsHandler {
	return &CommandsHandler{commandSync: commandSync}
}

// HandleListCommands returns the commands currently registered on the platform
func (h *CommandsHandler) HandleListCommands(w http.ResponseWriter, r *http.Request) {
	commands, err := h.commandSync.ListCommands(r.Context())
	if err != nil {
		log.Error("❌ Failed to list commands: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(commands),
		"commands": commands,
	})
}

// HandleRegisterCommands forces re-registration of the command set
func (h *CommandsHandler) HandleRegisterCommands(w http.ResponseWriter, r *http.Request) {
	commands, err := h.commandSync.RegisterCommands(r.Context())
	if err != nil {
		log.Error("❌ Failed to register commands: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Comandos registrados exitosamente",
		"commands": commands,
	})
}

func (h *CommandsHandler) SetupEndpoints(router *mux.Router) {
	log.Info("🚀 Registering command endpoints")

	router.HandleFunc("/commands", h.HandleListCommands).Methods("GET")
	router.HandleFunc("/register-commands", h.HandleRegisterCommands).Methods("GET", "POST")

	log.Info("✅ Command endpoints registered successfully")
}
