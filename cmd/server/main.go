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

	"kohisync_backend/internal/config"
	"kohisync_backend/internal/database"
	"kohisync_backend/internal/events"
	"kohisync_backend/internal/metrics"
	"kohisync_backend/internal/repositories"
	"kohisync_backend/internal/repositories/memory"
	"kohisync_backend/internal/router"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		utils.InitLogger("info", "console")
		utils.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.LogError(err, "Server exited with error")
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, collector *metrics.Collector) (repositories.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		utils.LogWarn("Using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.ApplySchema(ctx, db, cfg.Database.SchemaPath); err != nil {
		db.Close()
		return nil, nil, err
	}
	collector.WatchDB(db, cfg.Database.Name)
	return repositories.NewPostgresStore(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		utils.LogError(err, "Failed to close database")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	collector := metrics.NewCollector()
	store, closeStore, err := openStore(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	hub := events.NewHub(cfg.CORSAllowedOrigins)
	defer hub.Close()

	svcs := services.New(store, tokens, services.Observers{Metrics: collector, Notifier: hub}, cfg.KioskSessionTTL, cfg.Location())

	if cfg.AdminPassword != "" {
		if err := svcs.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return err
		}
	}
	if cfg.SeedDemoData {
		if err := database.SeedDemoData(ctx, svcs.Auth, svcs.Inventory); err != nil {
			return err
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Dependencies{Services: svcs, Tokens: tokens, Feed: hub})

	metricsEngine := gin.New()
	metricsEngine.Use(gin.Recovery())
	metricsEngine.GET("/metrics", gin.WrapH(collector.Handler()))

	apiServer := &http.Server{Addr: ":" + cfg.Port, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	metricsServer := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsEngine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		go func(srv *http.Server) {
			utils.LogInfo("Server starting", map[string]interface{}{"addr": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		utils.LogInfo("Shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError(err, "Graceful shutdown failed", map[string]interface{}{"addr": srv.Addr})
		}
	}
	return serveErr
}
