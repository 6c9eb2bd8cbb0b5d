package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"message-room/infrastructure/rest"
	"message-room/infrastructure/ws"
	"message-room/internal"
	"message-room/moderation"
	"message-room/observability"
	"message-room/repositories"
	"message-room/runtime"
	"message-room/runtime/workers"
	"message-room/search"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// Thin wrapper: run() does the work, main only maps it to an exit code
	// so that every defer (database close, index flush) executes first.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	replacement, err := internal.CharacterRune(config.CensoredReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB) and search index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository, err := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messageRepository.Close() }()

	userRepository, err := repositories.NewUserRepository(db)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = userRepository.Close() }()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()
	index := search.NewMessageIndex(blugeWriter, logger)

	// 3. Moderation, optional: no wordlist means no censoring
	var moderator *moderation.Moderator
	if config.CensoredFilepath != "" {
		words, err := moderation.ReadWordsFile(config.CensoredFilepath)
		if err != nil {
			return exitConfig, fmt.Errorf("censored wordlist: %w", err)
		}
		moderator, err = moderation.NewModerator(words, replacement)
		if err != nil {
			return exitConfig, fmt.Errorf("censored wordlist: %w", err)
		}
		logger.Info("Moderation enabled", "words", len(words))
	}

	// 4. Presence & coordination
	registry := runtime.NewRegistry()
	coordinator := runtime.NewCoordinator(logger, registry, messageRepository,
		userRepository, moderator, config.IndexBufferSize)

	// 5. Background workers under supervision
	stats := observability.NewStatsManager(logger)
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewIndexer(logger, coordinator.Stored(), index, stats),
		workers.NewMonitor(logger, stats, config.MetricInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 6. HTTP surface: realtime hub + read-only queries
	mux := http.NewServeMux()
	mux.Handle("/chatHub", ws.NewHandler(ctx, logger, coordinator, stats, config.ConnectionBufferSize))
	rest.NewHandlers(logger, messageRepository, userRepository, index, stats).Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	stop()
	<-supervisorDone

	return exitOK, nil
}
