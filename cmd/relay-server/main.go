// Package main provides the relay server executable: the message broker
// behind an HTTP/WebSocket gateway, with a background expiry sweeper.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coregx/relay"
	adapter "github.com/coregx/relay/adapters/relica"
	"github.com/coregx/relay/cmd/relay-server/internal/api"
	"github.com/coregx/relay/cmd/relay-server/internal/config"
)

// SimpleLogger implements relay.Logger on the standard library logger.
type SimpleLogger struct{}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}
func (l *SimpleLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}
func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

func main() {
	log.Println("Starting relay server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded: server=%s:%d database=%s sweep=%s",
		cfg.Server.Host, cfg.Server.Port, cfg.Database.Driver, cfg.Relay.SweepInterval)

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database: %v", closeErr)
		}
	}()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	logger := &SimpleLogger{}
	messages := adapter.NewMessageRepositoryWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)
	registry := relay.NewRegistry(logger)
	notifications := relay.NewLoggingNotificationService(logger)

	publisher, err := relay.NewPublisher(
		relay.WithPublisherRepository(messages),
		relay.WithPublisherRegistry(registry),
		relay.WithPublisherLogger(logger),
		relay.WithPublisherNotifications(notifications),
	)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	replayEngine, err := relay.NewReplayEngine(
		relay.WithReplayRepository(messages),
		relay.WithReplayLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create replay engine: %v", err)
	}

	sweeper, err := relay.NewSweeper(
		relay.WithSweeperRepository(messages),
		relay.WithSweeperLogger(logger),
		relay.WithSweeperNotifications(notifications),
	)
	if err != nil {
		log.Fatalf("Failed to create sweeper: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sweeps once at startup to clear any backlog, then on the interval.
	go sweeper.Run(ctx, cfg.Relay.SweepInterval)

	handler := api.NewHandler(publisher, replayEngine, registry, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     loggingMiddleware(handler, logger),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		log.Println("Endpoints:")
		log.Println("   PUT|POST /<topic>          publish")
		log.Println("   GET      /<topic>/json     replay (?since=...)")
		log.Println("   GET      /<topics>/ws      live subscribe")
		log.Println("   GET      /<topic>/auth     auth probe")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	cancel() // Stop sweeper
	log.Println("Server stopped gracefully")
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger relay.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
