package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/physics"
)

// GetConfig returns what a client needs to run the same simulation locally
func GetConfig(cfg *config.Config, params physics.Params) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tick_rate":        physics.DefaultTickRate,
			"physics":          params,
			"field":            gin.H{"width": game.FieldWidth, "height": game.FieldHeight},
			"ball_radius":      game.BallRadius,
			"spawn":            game.DefaultSpawnConfig(),
			"landing_points":   game.LandingPoints,
			"max_replay_ticks": cfg.MaxReplayTicks,
		})
	}
}
