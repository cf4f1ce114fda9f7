package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/playmatatu/bouncer/internal/ws"
)

// WatchRun upgrades to a websocket and streams a stored run to a spectator
func WatchRun(db *sqlx.DB, cfg *config.Config, params physics.Params, hub *ws.Hub) gin.HandlerFunc {
	return ws.ServeWatch(hub, ReplayLoader(db), params, cfg.FramesPerSecond)
}
