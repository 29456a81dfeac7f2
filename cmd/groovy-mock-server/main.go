// Command groovy-mock-server runs the reference Groovy execution service.
//
// Configuration via environment variables:
//
//	MOCK_PORT            - Listen port (default: 8080)
//	MOCK_USERS           - Accepted users as "user:pass,user:pass" (default: user_1:pass_1 .. user_5:pass_5)
//	MOCK_STORAGE         - Storage type: "memory" or "postgres" (default: "memory")
//	MOCK_STORAGE_SIZE    - Max jobs in memory store (default: 10000)
//	MOCK_POSTGRES_DSN    - PostgreSQL DSN, required for MOCK_STORAGE=postgres
//	MOCK_WORKERS         - Concurrent executors (default: 4)
//	MOCK_EXECUTION_DELAY - Simulated execution time, e.g. "500ms" (default: 0)
//	MOCK_SUBMIT_WAIT     - Hold submit responses until the job finishes, up to this long (default: 0)
//	MOCK_RATE_LIMIT      - Requests per minute per user, 0 disables (default: 0)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/service"
	"github.com/rhuss/groovycheck/pkg/storage"
	"github.com/rhuss/groovycheck/pkg/storage/memory"
	"github.com/rhuss/groovycheck/pkg/storage/postgres"
)

func main() {
	debug.Init(os.Stderr, "", "INFO")
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := envOrDefault("MOCK_PORT", "8080")

	users, err := parseUsers(envOrDefault("MOCK_USERS", defaultUsers()))
	if err != nil {
		return fmt.Errorf("invalid MOCK_USERS: %w", err)
	}

	cfg := service.DefaultConfig()
	cfg.Users = users
	if cfg.Workers, err = envInt("MOCK_WORKERS", cfg.Workers); err != nil {
		return err
	}
	if cfg.RateLimit, err = envInt("MOCK_RATE_LIMIT", 0); err != nil {
		return err
	}
	if cfg.ExecutionDelay, err = envDuration("MOCK_EXECUTION_DELAY"); err != nil {
		return err
	}
	if cfg.SubmitWait, err = envDuration("MOCK_SUBMIT_WAIT"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Workers)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := service.New(store, service.Arithmetic{}, cfg)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: svc.Handler(),
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("mock server starting", "port", port, "users", len(users))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newStore(ctx context.Context, workers int) (storage.JobStore, error) {
	switch storageType := envOrDefault("MOCK_STORAGE", "memory"); storageType {
	case "memory":
		size, err := envInt("MOCK_STORAGE_SIZE", 10000)
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "memory", "max_size", size)
		return memory.New(size), nil

	case "postgres":
		dsn := os.Getenv("MOCK_POSTGRES_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("MOCK_POSTGRES_DSN is required for postgres storage")
		}
		store, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxConns: postgres.PoolSize(workers), Migrate: true})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown MOCK_STORAGE %q (want memory or postgres)", storageType)
	}
}

// parseUsers parses "user:pass,user:pass".
func parseUsers(s string) ([]api.Credential, error) {
	var users []api.Credential
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, pass, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("entry %q is not user:pass", entry)
		}
		users = append(users, api.NewCredential(name, pass))
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users configured")
	}
	return users, nil
}

func defaultUsers() string {
	entries := make([]string, 5)
	for i := range entries {
		entries[i] = fmt.Sprintf("user_%d:pass_%d", i+1, i+1)
	}
	return strings.Join(entries, ",")
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
