// Command seed-player creates a player account, optionally with a demo run
// that is verified on the spot and put on the leaderboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/database"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/models"
	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/store"
)

func main() {
	// Initialize configuration (also loads .env)
	cfg := config.Load()
	if err := logging.Init(cfg.LogLevel, cfg.Environment); err != nil {
		panic(err)
	}
	defer logging.Sync()
	log := logging.Named("seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	name := os.Getenv("SEED_PLAYER_NAME")
	if name == "" {
		name = "demo"
		log.Infow("using default player name", "name", name)
	}
	password := os.Getenv("SEED_PLAYER_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Warn("using default player password; set SEED_PLAYER_PASSWORD outside development")
	}

	players := store.NewPlayerStore(db)
	player, err := players.Create(ctx, name, password)
	if errors.Is(err, store.ErrNameTaken) {
		player, err = players.GetByName(ctx, name)
	}
	if err != nil {
		log.Fatalw("failed to create player", "name", name, "error", err)
	}
	log.Infow("player ready", "id", player.ID, "name", player.Name)

	if os.Getenv("SEED_DEMO_RUN") != "true" {
		return
	}

	params, err := config.LoadPhysics(cfg.PhysicsFile)
	if err != nil {
		log.Fatalw("failed to load physics tuning", "error", err)
	}
	rp := demoReplay(uint64(time.Now().UnixNano()))
	res, err := game.Simulate(rp, params)
	if err != nil {
		log.Fatalw("failed to simulate demo run", "error", err)
	}
	raw, _ := json.Marshal(rp)

	runs := store.NewRunStore(db)
	run := &models.RunRecord{
		ID:            uuid.NewString(),
		PlayerID:      player.ID,
		Seed:          int64(rp.Seed),
		Ticks:         rp.Ticks,
		Replay:        raw,
		ClaimedScore:  res.Score,
		ClaimedDigest: res.Digest,
	}
	if err := runs.Create(ctx, run); err != nil {
		log.Fatalw("failed to store demo run", "error", err)
	}
	if err := runs.MarkVerified(ctx, run.ID, res.Score, res.Digest); err != nil {
		log.Fatalw("failed to verify demo run", "error", err)
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()
	if err := redis.NewLeaderboard(rdb).Submit(ctx, player.Name, res.Score); err != nil {
		log.Fatalw("failed to submit demo score", "error", err)
	}
	log.Infow("demo run seeded", "run", run.ID, "score", res.Score, "digest", res.Digest)
}

// demoReplay bounces every half second for twenty seconds.
func demoReplay(seed uint64) game.Replay {
	const ticks = 20 * physics.DefaultTickRate
	rp := game.Replay{Seed: seed, Ticks: ticks}
	for t := physics.DefaultTickRate / 4; t < ticks; t += physics.DefaultTickRate / 2 {
		rp.Bounces = append(rp.Bounces, uint32(t))
	}
	return rp
}
