// cmd/server runs the backtest engine API: indicator computation,
// strategy catalog, backtest runs with Redis result caching and a SQLite
// run journal, plus Prometheus metrics on a separate address.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"quant-enginev1/config"
	"quant-enginev1/internal/api"
	"quant-enginev1/internal/logger"
	"quant-enginev1/internal/metrics"
	"quant-enginev1/internal/service"
	rediscache "quant-enginev1/internal/store/redis"
	sqlitestore "quant-enginev1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[server] starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[server] %v", err)
	}

	slogger := logger.Init("engine-api", logger.ParseLevel(cfg.LogLevel))
	prom := metrics.New()
	health := metrics.NewHealthStatus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Result cache (optional) ----
	var cache *rediscache.Cache
	if cfg.RedisAddr != "" {
		cache, err = rediscache.New(rediscache.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			log.Printf("[server] WARNING: result cache unavailable: %v (continuing without cache)", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// ---- Series store + run journal (optional) ----
	var store *sqlitestore.Store
	if cfg.SQLitePath != "" {
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		store, err = sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Printf("[server] WARNING: sqlite init failed: %v (continuing without store)", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	// ---- Liveness probes + metrics endpoint ----
	health.StartLivenessChecker(ctx, cacheClient(cache), storeDB(store), 15*time.Second)
	metrics.Serve(cfg.MetricsAddr, health)

	// ---- Engine service + HTTP API ----
	svc := service.New(cache, store, prom)
	server := api.NewServer(svc, store, health, prom, slogger)

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[server] API listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] http: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[server] shutdown signal received")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
	cancel()
	log.Println("[server] stopped")
}

// nil-safe accessors for the optional dependencies

func cacheClient(c *rediscache.Cache) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Client()
}

func storeDB(s *sqlitestore.Store) *sql.DB {
	if s == nil {
		return nil
	}
	return s.DB()
}
