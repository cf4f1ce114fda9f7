package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/bouncer/internal/logging"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/redis/go-redis/v9"
)

// GetLeaderboard returns the top verified scores. ?player=name adds that
// player's own rank.
func GetLeaderboard(rdb *redis.Client) gin.HandlerFunc {
	board := rstore.NewLeaderboard(rdb)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limit := queryInt(c, "limit", 10)
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		top, err := board.Top(ctx, int64(limit))
		if err != nil {
			logging.Named("api").Errorw("leaderboard", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard unavailable"})
			return
		}
		resp := gin.H{"entries": top}

		if name := c.Query("player"); name != "" {
			entry, ok, err := board.Rank(ctx, name)
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard unavailable"})
				return
			}
			if ok {
				resp["player"] = entry
			} else {
				resp["player"] = nil
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
