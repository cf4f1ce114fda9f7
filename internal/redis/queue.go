package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunQueue holds submitted run ids scored by submission time.
type RunQueue struct {
	rdb *redis.Client
	key string
}

func NewRunQueue(rdb *redis.Client) *RunQueue {
	return &RunQueue{rdb: rdb, key: PendingRunsKey}
}

func (q *RunQueue) Enqueue(ctx context.Context, runID string, at time.Time) error {
	if err := q.rdb.ZAdd(ctx, q.key, redis.Z{Score: float64(at.Unix()), Member: runID}).Err(); err != nil {
		return fmt.Errorf("enqueue run %s: %w", runID, err)
	}
	return nil
}

// Due lists up to limit run ids submitted at or before now, oldest first.
func (q *RunQueue) Due(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	ids, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.Unix()),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	return ids, nil
}

// Claim removes runID from the queue. Only one caller wins per id.
func (q *RunQueue) Claim(ctx context.Context, runID string) (bool, error) {
	removed, err := q.rdb.ZRem(ctx, q.key, runID).Result()
	if err != nil {
		return false, fmt.Errorf("claim run %s: %w", runID, err)
	}
	return removed > 0, nil
}

func (q *RunQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.key).Result()
}

// Run event types
const (
	EventRunSubmitted = "run_submitted"
	EventRunVerified  = "run_verified"
	EventRunRejected  = "run_rejected"
)

type RunEvent struct {
	Type     string `json:"type"`
	RunID    string `json:"run_id"`
	PlayerID int64  `json:"player_id,omitempty"`
	Player   string `json:"player,omitempty"`
	Score    int    `json:"score,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PublishRunEvent sends ev on the run events channel and returns the number
// of subscribers that received it.
func PublishRunEvent(ctx context.Context, rdb *redis.Client, ev RunEvent) (int64, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	n, err := rdb.Publish(ctx, RunEventsChannel, b).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s for run %s: %w", ev.Type, ev.RunID, err)
	}
	return n, nil
}

func SubscribeRunEvents(ctx context.Context, rdb *redis.Client) *redis.PubSub {
	return rdb.Subscribe(ctx, RunEventsChannel)
}
