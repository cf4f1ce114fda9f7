package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/models"
	"github.com/playmatatu/bouncer/internal/physics"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/store"
	"github.com/redis/go-redis/v9"
)

// maxSampledFrames bounds the frames a simulate request may ask for.
const maxSampledFrames = 2000

type simulateRequest struct {
	Replay      game.Replay `json:"replay"`
	FramesEvery int         `json:"frames_every,omitempty"`
}

// SimulateReplay plays a replay on the server and returns the outcome, and
// sampled frames when frames_every is set.
func SimulateReplay(cfg *config.Config, params physics.Params) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req simulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "replay required"})
			return
		}
		if err := req.Replay.Validate(cfg.MaxReplayTicks); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		if req.FramesEvery > 0 {
			if req.Replay.Ticks/req.FramesEvery > maxSampledFrames {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "frames_every too small for replay length"})
				return
			}
			frames, res, err := game.Frames(req.Replay, params, req.FramesEvery)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"result": res, "frames": frames})
			return
		}

		res, err := game.Simulate(req.Replay, params)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": res})
	}
}

type submitRequest struct {
	Replay        game.Replay `json:"replay"`
	ClaimedScore  int         `json:"claimed_score"`
	ClaimedDigest string      `json:"claimed_digest"`
}

// SubmitRun stores a finished run and queues it for verification
func SubmitRun(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	runs := store.NewRunStore(db)
	queue := rstore.NewRunQueue(rdb)
	log := logging.Named("api")
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "replay and claimed_score required"})
			return
		}
		if err := req.Replay.Validate(cfg.MaxReplayTicks); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if req.ClaimedScore < 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "claimed_score must not be negative"})
			return
		}

		raw, err := json.Marshal(req.Replay)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ctx := c.Request.Context()
		run := &models.RunRecord{
			ID:            uuid.NewString(),
			PlayerID:      playerID(c),
			Seed:          int64(req.Replay.Seed),
			Ticks:         req.Replay.Ticks,
			Replay:        raw,
			ClaimedScore:  req.ClaimedScore,
			ClaimedDigest: req.ClaimedDigest,
		}
		if err := runs.Create(ctx, run); err != nil {
			log.Errorw("store run", "player", run.PlayerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err := queue.Enqueue(ctx, run.ID, time.Now()); err != nil {
			// The row stays pending; it can be requeued from the database.
			log.Errorw("queue run", "run", run.ID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "verification queue unavailable", "id": run.ID})
			return
		}
		if _, err := rstore.PublishRunEvent(ctx, rdb, rstore.RunEvent{
			Type:     rstore.EventRunSubmitted,
			RunID:    run.ID,
			PlayerID: run.PlayerID,
			Score:    run.ClaimedScore,
		}); err != nil {
			log.Warnw("publish run_submitted", "run", run.ID, "error", err)
		}

		log.Infow("run submitted", "run", run.ID, "player", run.PlayerID, "ticks", run.Ticks, "claimed", run.ClaimedScore)
		c.Header("X-Run-ID", run.ID)
		c.JSON(http.StatusAccepted, run.Summary())
	}
}

// GetRun returns a run's public summary
func GetRun(db *sqlx.DB) gin.HandlerFunc {
	runs := store.NewRunStore(db)
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		run, err := runs.Get(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if err != nil {
			logging.Named("api").Errorw("get run", "run", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, run.Summary())
	}
}

// ListMyRuns returns the authenticated player's most recent runs
func ListMyRuns(db *sqlx.DB) gin.HandlerFunc {
	runs := store.NewRunStore(db)
	return func(c *gin.Context) {
		list, err := runs.ListByPlayer(c.Request.Context(), playerID(c), queryInt(c, "limit", 20))
		if err != nil {
			logging.Named("api").Errorw("list runs", "player", playerID(c), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		out := make([]models.RunSummary, len(list))
		for i := range list {
			out[i] = list[i].Summary()
		}
		c.JSON(http.StatusOK, gin.H{"runs": out})
	}
}
