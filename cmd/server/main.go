package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tangent-backend/internal/api"
	"tangent-backend/internal/config"
	"tangent-backend/internal/handlers"
	"tangent-backend/internal/logging"
	"tangent-backend/internal/services"
	"tangent-backend/internal/store/chatfile"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg)
	log.Info().Str("data_dir", cfg.DataDir).Msg("starting tangent backend")

	// 2. Initialize the chat store (one serving process per data directory)
	chatStore, err := chatfile.New(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat store")
	}

	// 3. Initialize Services and Handlers
	turnLogger := services.NewTurnLogger(chatStore, log)
	// No AI-provider bridge ships with the server; reply generation stays
	// disabled until a Responder is wired in here.
	chatService := services.NewChatService(chatStore, turnLogger, nil, log)
	authService := services.NewAuthService(cfg, log)

	routerDeps := api.RouterDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		ChatHandler:   handlers.NewChatHandlers(chatService),
		BranchHandler: handlers.NewBranchHandlers(chatService),
		Config:        cfg,
		Logger:        log,
	}
	router := api.NewRouter(routerDeps)

	// 4. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stopChan
	log.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("server shutdown complete")
}
