package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Keys and channels shared by the API, the verify worker and the ws layer.
const (
	LeaderboardKey   = "leaderboard"
	PendingRunsKey   = "runs:pending"
	RunEventsChannel = "run_events"
)

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
