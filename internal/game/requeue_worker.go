package game

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/logging"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/store"
	"github.com/redis/go-redis/v9"
)

const requeueBatch = 100

// StartRequeueWorker puts runs that are still pending in the database back on
// the verification queue. It covers submissions whose enqueue failed and runs
// lost from Redis. It blocks until ctx is cancelled.
func StartRequeueWorker(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	log := logging.Named("requeue")
	interval := time.Duration(cfg.RequeueIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	age := time.Duration(cfg.RequeueAfterSeconds) * time.Second

	runs := store.NewRunStore(db)
	queue := rstore.NewRunQueue(rdb)

	log.Infow("requeue worker started", "interval", interval, "age", age)

	// Run once immediately on startup
	sweep := func() {
		n, err := RequeueStale(ctx, runs, queue, time.Now(), age)
		if err != nil {
			log.Errorw("requeue sweep", "error", err)
			return
		}
		if n > 0 {
			log.Infow("requeued stale runs", "count", n)
		}
	}
	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("requeue worker stopping")
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// RequeueStale enqueues every run pending for longer than age. Enqueueing a
// run that is already queued only refreshes its score.
func RequeueStale(ctx context.Context, runs *store.RunStore, queue *rstore.RunQueue, now time.Time, age time.Duration) (int, error) {
	ids, err := runs.PendingBefore(ctx, now.Add(-age), requeueBatch)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := queue.Enqueue(ctx, id, now); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
