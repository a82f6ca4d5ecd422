package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"rolebot/clients/chatrelay"
	discordclient "rolebot/clients/discord"
	mailclient "rolebot/clients/mail"
	"rolebot/config"
	"rolebot/core/log"
	"rolebot/handlers"
	"rolebot/middleware"
	"rolebot/models"
	"rolebot/services/deferred"
	"rolebot/services/rolemenu"
	"rolebot/usecases/interactions"
)

func main() {
	if err := run(); err != nil {
		log.Error("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log.Configure(cfg.Environment, cfg.LogLevel)

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackAlertWebhook,
		Environment: cfg.Environment,
		AppName:     "rolebot",
		LogsURL:     cfg.ServerLogsURL,
	})

	session, err := discordgo.New("Bot " + cfg.DiscordConfig.BotToken)
	if err != nil {
		return err
	}
	discordClient := discordclient.NewDiscordClient(session, cfg.DiscordConfig.ApplicationID)

	// Relay transport is only dialed when a gateway is configured
	var relayTransport chatrelay.TransportFactory
	if cfg.RelayConfig.IsConfigured() {
		relayTransport = chatrelay.NewSocketIOTransportFactory(cfg.RelayConfig.GatewayURL, cfg.RelayConfig.APIKey)
	}
	relayClient := chatrelay.NewClient(relayTransport, chatrelay.DefaultReconnectPolicy(), cfg.RelayConfig.SendTimeout)
	mailClient := mailclient.NewMailClient(cfg.MailConfig)

	bindings, err := rolemenu.LoadBindings(cfg.RoleBindingsFile)
	if err != nil {
		return err
	}
	roleMenuService := rolemenu.NewRoleMenuService(discordClient, bindings, cfg.RoleMenuTitle)
	deferredResponder := deferred.NewDeferredResponder(
		discordClient,
		cfg.DeferredWorkers,
		alertMiddleware.WrapBackgroundTask,
	)

	commandsUseCase := interactions.NewCommandsUseCase(roleMenuService, deferredResponder, relayClient, mailClient)
	registry := interactions.NewCommandRegistry(commandsUseCase)
	dispatcher := interactions.NewDispatcher(registry)
	commandSync := interactions.NewCommandSyncUseCase(discordClient, registry)

	eventsHandler := handlers.NewDiscordEventsHandler(
		session,
		roleMenuService,
		commandSync,
		models.ReactionSource(cfg.ReactionEventSource),
		alertMiddleware.WrapBackgroundTask,
	)
	interactionsHandler := handlers.NewInteractionsHandler(
		dispatcher,
		middleware.NewInteractionSignatureMiddleware(cfg.DiscordConfig.PublicKey),
	)
	commandsHandler := handlers.NewCommandsHandler(commandSync)
	healthHandler := handlers.NewHealthHandler(eventsHandler, relayClient)

	// Create a new router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogging)

	// Setup endpoints with the new router
	interactionsHandler.SetupEndpoints(router)
	commandsHandler.SetupEndpoints(router)
	healthHandler.SetupEndpoints(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	if err := eventsHandler.StartBot(); err != nil {
		return err
	}

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			middleware.SignatureHeader,
			middleware.TimestampHeader,
			middleware.RequestIDHeader,
		},
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, func() {
		eventsHandler.StopBot()
		deferredResponder.Stop()
		relayClient.Close()
	})
}

func handleGracefulShutdown(server *http.Server, cleanup func()) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Info("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Info("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Error("❌ Server shutdown error: %v", err)
		return err
	}

	// In-flight follow-ups and queued reactions finish after the listener closes
	cleanup()

	log.Info("✅ Server stopped gracefully")
	return nil
}
