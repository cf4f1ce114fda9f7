package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/models"
	"github.com/playmatatu/bouncer/internal/physics"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Verifier re-simulates submitted runs and records the verdict.
type Verifier struct {
	runs    *store.RunStore
	players *store.PlayerStore
	queue   *rstore.RunQueue
	board   *rstore.Leaderboard
	rdb     *redis.Client
	params  physics.Params

	workers  int
	batch    int
	maxTicks int
	log      *zap.SugaredLogger
}

func NewVerifier(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, params physics.Params) *Verifier {
	workers := cfg.VerifyWorkers
	if workers <= 0 {
		workers = 1
	}
	batch := cfg.VerifyBatchSize
	if batch <= 0 {
		batch = 32
	}
	return &Verifier{
		runs:     store.NewRunStore(db),
		players:  store.NewPlayerStore(db),
		queue:    rstore.NewRunQueue(rdb),
		board:    rstore.NewLeaderboard(rdb),
		rdb:      rdb,
		params:   params,
		workers:  workers,
		batch:    batch,
		maxTicks: cfg.MaxReplayTicks,
		log:      logging.Named("verify"),
	}
}

// StartVerifyWorker polls the pending run queue until ctx is cancelled.
func StartVerifyWorker(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, params physics.Params) {
	log := logging.Named("verify")
	if db == nil || rdb == nil || cfg == nil {
		log.Warn("database, redis or config missing; verify worker not started")
		return
	}

	poll := time.Duration(cfg.VerifyPollSeconds) * time.Second
	if poll <= 0 {
		poll = 2 * time.Second
	}
	v := NewVerifier(db, rdb, cfg, params)

	log.Infow("verify worker started", "workers", v.workers, "poll", poll)
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("verify worker stopping")
				return
			case <-ticker.C:
				if _, err := v.ProcessPending(ctx, time.Now()); err != nil {
					log.Errorw("process pending runs", "error", err)
				}
			}
		}
	}()
}

// ProcessPending claims up to one batch of due runs and verifies them
// concurrently. It returns how many runs this call claimed.
func (v *Verifier) ProcessPending(ctx context.Context, now time.Time) (int, error) {
	ids, err := v.queue.Due(ctx, now, int64(v.batch))
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	claimed := 0
	for _, id := range ids {
		won, err := v.queue.Claim(ctx, id)
		if err != nil {
			v.log.Errorw("claim run", "run", id, "error", err)
			continue
		}
		if !won {
			continue
		}
		claimed++
		g.Go(func() error {
			if err := v.VerifyRun(gctx, id); err != nil {
				v.log.Errorw("verify run", "run", id, "error", err)
			}
			return nil
		})
	}
	return claimed, g.Wait()
}

// VerifyRun re-simulates one stored run. A run that is already decided is
// left alone.
func (v *Verifier) VerifyRun(ctx context.Context, id string) error {
	run, err := v.runs.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		v.log.Warnw("queued run not found", "run", id)
		return nil
	}
	if err != nil {
		return err
	}
	if run.Status != models.RunPending {
		v.log.Debugw("run already decided", "run", id, "status", run.Status)
		return nil
	}

	var rp Replay
	if err := json.Unmarshal(run.Replay, &rp); err != nil {
		return v.reject(ctx, run.ID, run.PlayerID, "malformed replay")
	}
	if err := rp.Validate(v.maxTicks); err != nil {
		return v.reject(ctx, run.ID, run.PlayerID, err.Error())
	}

	res, err := Verify(rp, v.params, run.ClaimedScore, run.ClaimedDigest)
	if err != nil {
		return v.reject(ctx, run.ID, run.PlayerID, err.Error())
	}

	// The leaderboard goes first: until the verdict is written the run stays
	// pending, so a failure here is retried by the requeue sweep. Submit only
	// ever raises a score, so a retry is harmless.
	player, err := v.players.GetByID(ctx, run.PlayerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", run.PlayerID, err)
	}
	if err := v.board.Submit(ctx, player.Name, res.Score); err != nil {
		return err
	}

	if err := v.runs.MarkVerified(ctx, run.ID, res.Score, res.Digest); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	v.log.Infow("run verified", "run", run.ID, "player", player.Name, "score", res.Score, "ticks", res.Ticks)
	v.publish(ctx, rstore.RunEvent{
		Type:     rstore.EventRunVerified,
		RunID:    run.ID,
		PlayerID: run.PlayerID,
		Player:   player.Name,
		Score:    res.Score,
	})
	return nil
}

func (v *Verifier) reject(ctx context.Context, runID string, playerID int64, reason string) error {
	if err := v.runs.MarkRejected(ctx, runID, reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	v.log.Infow("run rejected", "run", runID, "reason", reason)
	v.publish(ctx, rstore.RunEvent{
		Type:     rstore.EventRunRejected,
		RunID:    runID,
		PlayerID: playerID,
		Reason:   reason,
	})
	return nil
}

func (v *Verifier) publish(ctx context.Context, ev rstore.RunEvent) {
	n, err := rstore.PublishRunEvent(ctx, v.rdb, ev)
	if err != nil {
		v.log.Warnw("publish run event", "type", ev.Type, "run", ev.RunID, "error", err)
		return
	}
	v.log.Debugw("published run event", "type", ev.Type, "run", ev.RunID, "subscribers", n)
}
