package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openvideohub/videohub/internal/api"
	"github.com/openvideohub/videohub/internal/cache"
	"github.com/openvideohub/videohub/internal/config"
	"github.com/openvideohub/videohub/internal/db"
	"github.com/openvideohub/videohub/internal/health"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/media"
	"github.com/openvideohub/videohub/internal/metrics"
	"github.com/openvideohub/videohub/internal/middleware"
	"github.com/openvideohub/videohub/internal/storage"
	"github.com/openvideohub/videohub/internal/uploads"
	"github.com/openvideohub/videohub/internal/videoapi"
	"github.com/openvideohub/videohub/internal/videos"
	"github.com/openvideohub/videohub/internal/websocket"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "")
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Default()

	// Failure reports are kept only when the database is reachable
	var reports media.ReportStore
	var checkerCfg health.CheckerConfig
	database, err := db.New(ctx, db.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Warn(ctx, "database unavailable, player failures will not be stored", map[string]interface{}{"error": err.Error()})
	} else {
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			log.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		reports = db.NewPlaybackReportRepository(database)
		checkerCfg.DB = database.DB
	}

	redisCache, err := cache.New(ctx, cfg.RedisAddr, cfg.CacheTTL, log, m)
	if err != nil {
		log.Warn(ctx, "redis unavailable, caching and cross-instance live comments disabled", map[string]interface{}{"error": err.Error()})
	} else {
		defer redisCache.Close()
		checkerCfg.RedisCheck = redisCache.Ping
	}

	storageCfg := &storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		Region:    cfg.S3Region,
	}
	var uploadHandler *uploads.Handler
	storageClient, err := storage.New(storageCfg)
	if err == nil {
		err = storageClient.EnsureBucket(ctx)
	}
	if err != nil {
		log.Warn(ctx, "object storage unavailable, uploads disabled", map[string]interface{}{"error": err.Error()})
	} else {
		checkerCfg.StorageCheck = storageClient.Ping
		uploadHandler = uploads.NewHandler(
			storage.NewS3Storage(storageCfg, cfg.S3Endpoint),
			storageClient,
			cfg.PublicBaseURL,
			cfg.MaxUploadBytes(),
			cfg.PresignExpiry,
			m,
			log,
		)
	}

	client := videoapi.NewClient(cfg.APIBaseURL, cfg.UpstreamTimeout, log, m)
	checkerCfg.Upstream = client.Ping
	checkerCfg.Version = version

	hub := websocket.NewHub(m, log)
	go hub.Run(ctx)

	var publisher videos.Publisher = hub
	var videoCache videos.Cache
	if redisCache != nil {
		relay := websocket.NewRelay(redisCache.Client(), hub, log)
		go relay.Run(ctx)
		publisher = relay
		videoCache = redisCache
	}

	env := media.PlayerEnvironment{
		Origin:        cfg.PlayerOrigin,
		Hostname:      cfg.PlayerHostname(),
		FacebookAppID: cfg.FacebookAppID,
	}

	router := api.NewRouter(api.Handlers{
		Media:   media.NewHandlers(nil, env, reports, m, log),
		Videos:  videos.NewHandlers(videos.NewService(client, videoCache, publisher, cfg.DefaultUserID, log)),
		Uploads: uploadHandler,
		Live:    websocket.NewHandler(hub, cfg.AllowedOrigins),
		Health:  health.NewHandler(health.NewChecker(&checkerCfg)),
		Metrics: m,
	})

	handler := middleware.Chain(router,
		middleware.RequestID,
		middleware.Recoverer(log),
		middleware.Logging(log),
		middleware.Timing(log, time.Second),
		metrics.MetricsMiddleware(m),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Gzip,
	)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting server", map[string]interface{}{
			"addr":         cfg.ServerAddr,
			"api_base_url": cfg.APIBaseURL,
			"version":      version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server failed", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info(shutdownCtx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", err)
	}
}
