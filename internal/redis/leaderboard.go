package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type LeaderboardEntry struct {
	Rank   int64  `json:"rank"`
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// Leaderboard keeps each player's best verified score in a sorted set.
type Leaderboard struct {
	rdb *redis.Client
	key string
}

func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb, key: LeaderboardKey}
}

// Submit records score for player, keeping the higher of the old and new.
func (l *Leaderboard) Submit(ctx context.Context, player string, score int) error {
	err := l.rdb.ZAddGT(ctx, l.key, redis.Z{Score: float64(score), Member: player}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard submit %s: %w", player, err)
	}
	return nil
}

// Top returns the best n players, highest first.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	out := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, LeaderboardEntry{Rank: int64(i) + 1, Player: name, Score: int(z.Score)})
	}
	return out, nil
}

// Rank returns the 1-based rank and best score of player. ok is false when
// the player has no verified run yet.
func (l *Leaderboard) Rank(ctx context.Context, player string) (entry LeaderboardEntry, ok bool, err error) {
	rank, err := l.rdb.ZRevRank(ctx, l.key, player).Result()
	if errors.Is(err, redis.Nil) {
		return LeaderboardEntry{}, false, nil
	}
	if err != nil {
		return LeaderboardEntry{}, false, fmt.Errorf("leaderboard rank %s: %w", player, err)
	}
	score, err := l.rdb.ZScore(ctx, l.key, player).Result()
	if err != nil {
		return LeaderboardEntry{}, false, fmt.Errorf("leaderboard score %s: %w", player, err)
	}
	return LeaderboardEntry{Rank: rank + 1, Player: player, Score: int(score)}, true, nil
}
