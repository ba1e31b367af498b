package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"nexus-gateway/gateway"
	"nexus-gateway/infrastructure/ws"
	"nexus-gateway/moderation"
	"nexus-gateway/repositories"
	"nexus-gateway/services"
	"nexus-gateway/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup (database close,
// worker shutdown) executes on every exit path.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskRune, err := characterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores & content sanitization
	identityStore := repositories.NewUserRepository(db)
	messageStore := repositories.NewMessageRepository(db, log)
	sanitizer, err := moderation.NewSanitizer(moderation.DefaultWords(), maskRune)
	if err != nil {
		return fmt.Errorf("sanitizer build failed: %w", err)
	}

	// 4. Gateway core
	registry := gateway.NewRegistry()
	presence := gateway.NewPresence()
	broadcaster := gateway.NewBroadcaster(log, registry, presence)
	ingest := services.NewMessageService(log, messageStore, sanitizer, config.MaxContentLength)
	gw := gateway.NewGateway(log, []byte(config.JWTSecret), identityStore, ingest,
		registry, presence, broadcaster, config.LeaveAllRoomsOnDisconnect)

	// 5. Context, signals & supervised workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewStorageGC(log, db, config.GCInterval))
	sup.Add(workers.NewReporter(log, registry, presence, config.ReportInterval))
	go sup.Run(ctx)

	// 6. HTTP server with the websocket endpoint
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: ws.NewServer(log, gw, config.ConnectionBufferSize, config.MaxFrameBytes).Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
