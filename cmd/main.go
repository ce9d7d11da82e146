package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/config"
	"github.com/oksasatya/go-user-directory/internal/container"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/file"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/gcs"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-directory/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
	"github.com/oksasatya/go-user-directory/internal/router"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
	"github.com/oksasatya/go-user-directory/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Snapshot: loaded once, never mutated afterwards
	store, err := loadStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	helpers.LogInfo(logger, "user snapshot loaded", logrus.Fields{
		"source":      cfg.UsersSource,
		"users":       store.Count(),
		"fingerprint": store.Fingerprint(),
	})

	// Redis (optional): query cache and rate limiting
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			helpers.LogError(logger, "redis unreachable; cache and rate limit fail open", err, logrus.Fields{"addr": cfg.RedisAddr})
		}
		container.SetRedis(rdb)
	}

	// Elasticsearch (optional): /api/search/users
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		container.SetES(es)
	}

	// RabbitMQ (optional): query audit events
	if cfg.AuditEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQAuditQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		container.SetRabbitPub(pub)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetUserStore(store)

	// Gin engine and global middleware
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		log.Fatalf("invalid TRUSTED_PROXIES: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.TrustedProxyList()))
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:  cfg.CORSOrigins(),
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	deps := router.InitModules(reg)
	reg.RegisterAll()
	if reg.ServeClient(cfg.PublicDir) {
		logger.WithField("dir", cfg.PublicDir).Debug("serving static client")
	}

	if container.GetES() != nil && cfg.ESIndexOnStart {
		n, err := deps.Service.IndexUsers(ctx)
		if err != nil {
			helpers.LogError(logger, "indexing users failed; search may be stale", err, logrus.Fields{"indexed": n})
		} else {
			logger.WithField("indexed", n).Info("users indexed")
		}
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// loadStore builds the snapshot from the configured source.
func loadStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*memory.UserStore, error) {
	var src repository.UserSource
	switch cfg.UsersSource {
	case config.SourceFile:
		src = file.NewUserSource(cfg.UsersFile)
	case config.SourceGCS:
		if cfg.GCSBucket == "" {
			return nil, errors.New("GCS_BUCKET is required for the gcs source")
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		defer func() { _ = client.Close() }()
		src = gcs.NewUserSource(client, cfg.GCSBucket, cfg.GCSUsersObject)
	case config.SourcePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		// The pool is only needed for the initial load.
		defer pool.Close()
		src = pginfra.NewUserSource(pool)
	default:
		return nil, fmt.Errorf("unknown USERS_SOURCE %q", cfg.UsersSource)
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	users, err := src.Load(loadCtx)
	if err != nil {
		return nil, err
	}
	logger.WithField("records", len(users)).Debug("users read from source")
	return memory.NewUserStore(users)
}
