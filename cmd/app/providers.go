package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/synergy-circle/internal/domain/access"
	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/internal/infra/config"
	"github.com/yanqian/synergy-circle/internal/infra/historystore"
	"github.com/yanqian/synergy-circle/internal/infra/llm/breaker"
	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
	httpiface "github.com/yanqian/synergy-circle/internal/interface/http"
	"github.com/yanqian/synergy-circle/pkg/metrics"
)

func provideDiscoveryConfig(cfg *config.Config) discovery.Config {
	return discovery.Config{
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		TargetSuggestions: cfg.Discovery.TargetSuggestions,
		FailureMessage:    cfg.Discovery.FailureMessage,
		RecentLimit:       cfg.History.RecentLimit,
	}
}

func provideAccessConfig(cfg *config.Config) access.Config {
	return access.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideGeminiClient(cfg *config.Config, logger *slog.Logger) (*gemini.Client, error) {
	return gemini.NewClient(context.Background(), gemini.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
}

// provideGenerator puts the circuit breaker in front of Gemini when enabled.
func provideGenerator(cfg *config.Config, client *gemini.Client, logger *slog.Logger) discovery.Generator {
	if !cfg.Breaker.Enabled {
		return client
	}
	logger.Info("gemini circuit breaker enabled", "failure_threshold", cfg.Breaker.FailureThreshold, "min_requests", cfg.Breaker.MinRequests)
	return breaker.New(client, breaker.Settings{
		Name:             "gemini",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		MinRequests:      cfg.Breaker.MinRequests,
	}, logger)
}

func provideMetricsCollector(cfg *config.Config) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector("synergy")
}

func provideWebHandler(cfg *config.Config, svc discovery.Service, logger *slog.Logger) *httpiface.WebHandler {
	if !cfg.Web.Enabled {
		return nil
	}
	return httpiface.NewWebHandler(svc, cfg.Web.SessionTTL, logger)
}

type closableStore interface {
	discovery.HistoryStore
	Close()
}

// provideHistoryStore returns nil when history is off. A configured backend that
// cannot be reached falls back to the memory store.
func provideHistoryStore(cfg *config.Config, logger *slog.Logger) (discovery.HistoryStore, func(), error) {
	hc := cfg.History
	if hc.Backend == "" || hc.Backend == config.HistoryBackendNone {
		logger.Info("analysis history disabled")
		return nil, func() {}, nil
	}

	var store closableStore
	switch hc.Backend {
	case config.HistoryBackendValkey:
		store = openValkeyStore(hc, logger)
	case config.HistoryBackendPostgres:
		store = openPostgresStore(hc, logger)
	case config.HistoryBackendObjectStore:
		store = openObjectStore(hc, logger)
	}
	if store == nil {
		logger.Info("analysis history using memory store", "ttl", hc.TTL)
		store = historystore.NewMemoryStore(hc.TTL, nil)
	}
	return store, store.Close, nil
}

func openValkeyStore(hc config.HistoryConfig, logger *slog.Logger) closableStore {
	opt, err := buildValkeyOptions(hc.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return nil
	}
	logger.Info("analysis history valkey store enabled", "addr", hc.Redis.Addr)
	return historystore.NewValkeyStore(client, hc.Redis.Prefix, hc.TTL, nil)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func openPostgresStore(hc config.HistoryConfig, logger *slog.Logger) closableStore {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(hc.Postgres.DSN))
	if err != nil {
		logger.Error("invalid postgres dsn, falling back to memory store", "error", err)
		return nil
	}
	if hc.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = hc.Postgres.MaxConns
	}
	if hc.Postgres.MinConns > 0 {
		poolConfig.MinConns = hc.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, falling back to memory store", "error", err)
		pool.Close()
		return nil
	}
	store := historystore.NewPostgresStore(pool, hc.TTL)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to create analyses table, falling back to memory store", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("analysis history postgres store enabled")
	return store
}

func openObjectStore(hc config.HistoryConfig, logger *slog.Logger) closableStore {
	oc := hc.ObjectStore
	store, err := historystore.NewObjectStore(historystore.ObjectStoreOptions{
		Endpoint:  oc.Endpoint,
		AccessKey: oc.AccessKey,
		SecretKey: oc.SecretKey,
		Bucket:    oc.Bucket,
		Region:    oc.Region,
		Prefix:    oc.Prefix,
		TTL:       hc.TTL,
	}, nil, logger)
	if err != nil {
		logger.Error("failed to create object store client, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("object store bucket unavailable, falling back to memory store", "bucket", oc.Bucket, "error", err)
		return nil
	}
	logger.Info("analysis history object store enabled", "bucket", oc.Bucket, "prefix", oc.Prefix)
	return store
}
