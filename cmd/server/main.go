/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the POS settlement engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with engines and calendar
  4. Configure HTTP router and day-end scheduler
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags take their defaults from the environment, so either works:
  -port / POS_PORT     HTTP server port (default: 8080)
  -db   / POS_DB       SQLite database path (default: pos.db)
                       Use ":memory:" for an in-memory database
  -tz   / POS_TZ       Operating timezone (default: Asia/Colombo)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the day-end scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pos.db"

  # Run in a different timezone
  ./server -tz="Asia/Kolkata"

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Day-end scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/pos-engine/api"
	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/store/sqlite"
)

func main() {
	// .env is optional; flags still win over it.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Flags
	port := flag.Int("port", envInt("POS_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("POS_DB", "pos.db"), "SQLite database path")
	timezone := flag.String("tz", envString("POS_TZ", pos.DefaultTimezone), "Operating timezone")
	flag.Parse()

	// Calendar
	calendar, err := pos.NewCalendar(pos.SystemClock{}, *timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", *timezone, err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and scheduler
	handler := api.NewHandler(store, calendar)
	scheduler := api.NewDayEndScheduler(store, handler.Days, calendar)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (timezone %s)", *port, *timezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
