package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/bouncer/internal/api"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/database"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/migrations"
	"github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize configuration (also loads .env)
	cfg := config.Load()

	if err := logging.Init(cfg.LogLevel, cfg.Environment); err != nil {
		panic(err)
	}
	defer logging.Sync()
	log := logging.Named("server")

	params, err := config.LoadPhysics(cfg.PhysicsFile)
	if err != nil {
		log.Fatalw("failed to load physics tuning", "file", cfg.PhysicsFile, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if cfg.MigrateOnStart {
		log.Info("running DB migrations on startup")
		if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatalw("failed to run migrations", "error", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	hub := ws.NewHub()
	go hub.Run(ctx)

	if err := ws.StartEventRelay(ctx, rdb, hub); err != nil {
		log.Fatalw("failed to subscribe to run events", "error", err)
	}

	game.StartVerifyWorker(ctx, db, rdb, cfg, params)
	go game.StartRequeueWorker(ctx, db, rdb, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logging.Named("http")))

	api.SetupRoutes(router, db, rdb, cfg, params, hub)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("starting bouncer server", "port", port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

// requestLogger logs one line per request.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
