package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/middleware"
	"github.com/playmatatu/bouncer/internal/store"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,24}$`)

const minPasswordLen = 8

// playerID returns the id set by middleware.Auth.
func playerID(c *gin.Context) int64 {
	return c.GetInt64(middleware.PlayerIDKey)
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// ReplayLoader reads a stored run's replay for the spectator stream.
func ReplayLoader(db *sqlx.DB) func(ctx context.Context, runID string) (game.Replay, error) {
	runs := store.NewRunStore(db)
	return func(ctx context.Context, runID string) (game.Replay, error) {
		run, err := runs.Get(ctx, runID)
		if err != nil {
			return game.Replay{}, err
		}
		var rp game.Replay
		if err := json.Unmarshal(run.Replay, &rp); err != nil {
			return game.Replay{}, fmt.Errorf("decode replay for run %s: %w", runID, err)
		}
		return rp, nil
	}
}
