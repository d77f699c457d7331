package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rdapgate/internal/audit"
	"rdapgate/internal/cache"
	"rdapgate/internal/fetch"
	"rdapgate/internal/lookup"
	"rdapgate/internal/normalize"
	"rdapgate/internal/platform/config"
	"rdapgate/internal/platform/httpserver"
	"rdapgate/internal/platform/logger"
	"rdapgate/internal/platform/metrics"
	platformredis "rdapgate/internal/platform/redis"
	"rdapgate/internal/redact"
	"rdapgate/internal/schema"
	"rdapgate/internal/token"
	httptransport "rdapgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Pipeline logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := schema.Builtin()
	if err != nil {
		log.Error("load builtin registry catalog", "error", err)
		os.Exit(1)
	}

	// Cache backend: Redis when configured, in-process LRU otherwise.
	var cacheStore cache.Store
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient.Client)
		log.Info("cache backend: redis")
	} else {
		cacheStore = cache.NewMemoryStore(cfg.CacheMaxEntries)
		log.Info("cache backend: memory", "max_entries", cfg.CacheMaxEntries)
	}
	recordCache := cache.New(cacheStore, cache.TTLConfig{
		Domain: cfg.DomainTTL,
		IP:     cfg.IPTTL,
		ASN:    cfg.ASNTTL,
	})

	// Audit backend: Postgres when configured, memory otherwise. The audit
	// surface for admin reads always points at the same store.
	var auditStore audit.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := audit.NewPostgresStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("migrate audit schema", "error", err)
			os.Exit(1)
		}
		auditStore = pgStore
		log.Info("audit backend: postgres")
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Info("audit backend: memory")
	}

	recorderOpts := []audit.RecorderOption{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		recorderOpts = append(recorderOpts, audit.WithSink(publisher))
		log.Info("audit sink: kafka", "brokers", cfg.KafkaBrokers)
	}
	recorder := audit.NewRecorder(auditStore, log, recorderOpts...)

	m := metrics.New()
	redactor := redact.NewEngine(redact.NewTable())
	normalizer := normalize.New(catalog, redactor)
	fetcher := fetch.NewClient(log,
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxBodySize(cfg.FetchMaxBody),
	)

	service := lookup.NewService(recordCache, fetcher, normalizer, recorder, m, log)

	jwtService := token.NewJWTService(cfg.JWTSigningKey, "rdapgate", "rdapgate")
	handler := httptransport.NewHandler(service, auditStore, log, cfg.DefaultJurisdiction)
	router := httptransport.NewRouter(handler, token.NewJWTServiceAdapter(jwtService), log)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting rdapgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("rdapgate stopped")
}
