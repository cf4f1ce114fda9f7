package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/api/handlers"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/middleware"
	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/playmatatu/bouncer/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, params physics.Params, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		logging.Named("api").Debug("no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck(db, rdb))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb))
		v1.GET("/config", handlers.GetConfig(cfg, params))

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		v1.POST("/simulate", handlers.SimulateReplay(cfg, params))
		v1.GET("/leaderboard", handlers.GetLeaderboard(rdb))

		runs := v1.Group("/runs")
		{
			runs.GET("/:id", handlers.GetRun(db))
			runs.GET("/:id/watch", middleware.WebSocketCORSCheck(cfg), handlers.WatchRun(db, cfg, params, hub))
			runs.POST("", middleware.Auth(cfg), handlers.SubmitRun(db, rdb, cfg))
		}

		me := v1.Group("/me", middleware.Auth(cfg))
		{
			me.GET("", handlers.Me(db))
			me.GET("/runs", handlers.ListMyRuns(db))
		}
	}
}
