package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/attribution-gateway/internal/api"
	"github.com/ignite/attribution-gateway/internal/attribution"
	"github.com/ignite/attribution-gateway/internal/cache"
	"github.com/ignite/attribution-gateway/internal/config"
	"github.com/ignite/attribution-gateway/internal/klaviyo"
	"github.com/ignite/attribution-gateway/internal/metric"
	"github.com/ignite/attribution-gateway/internal/pkg/logger"
	"github.com/ignite/attribution-gateway/internal/repository/postgres"
	"github.com/ignite/attribution-gateway/internal/secrets"
	"github.com/ignite/attribution-gateway/internal/service/revenue"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process doesn't silently swallow traffic meant for us.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// Tenant store
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	tenantRepo := postgres.NewTenantRepo(db)

	// Managed secret store + credential resolver
	secretStore, err := secrets.NewAWSStore(ctx, cfg.Secrets.AWSRegion, cfg.Secrets.AWSProfile)
	if err != nil {
		log.Fatalf("Failed to init secret store: %v", err)
	}
	credResolver := secrets.NewResolver(tenantRepo, secretStore)
	credResolver.DevMode = cfg.Secrets.DevMode
	credResolver.DevEnvPrefix = cfg.Secrets.DevEnvPrefix

	// Upstream reporting client + attribution computer
	reporter := klaviyo.NewClient(klaviyo.Config{
		BaseURL:        cfg.Klaviyo.BaseURL,
		Revision:       cfg.Klaviyo.Revision,
		TimeoutSeconds: cfg.Klaviyo.TimeoutSeconds,
		MaxRetries:     cfg.Klaviyo.MaxRetries,
	})
	computer := attribution.NewComputer(reporter)
	metricResolver := metric.NewResolver(tenantRepo, reporter, computer)

	// Attribution cache: Redis when configured, in-memory otherwise
	var store cache.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis unreachable at %s: %v", cfg.Redis.Addr, err)
		}
		store = cache.NewRedisStore(rdb)
		logger.Info("attribution cache backend", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		store = cache.NewMemoryStore()
		logger.Info("attribution cache backend", "backend", "memory")
	}

	svc := revenue.NewService(tenantRepo, credResolver, metricResolver, computer, store, cfg.Cache.TTL())
	server := api.NewServer(svc, cfg.TimeframePresets)

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("%v", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("attribution gateway listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM; let in-flight credential
	// migrations finish before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	credResolver.Wait()
}
