package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/models"
)

const runColumns = `id, player_id, seed, ticks, replay, claimed_score, claimed_digest,
	status, score, digest, reason, created_at, verified_at`

type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

// Create stores a pending run. The caller assigns the id.
func (s *RunStore) Create(ctx context.Context, run *models.RunRecord) error {
	if run.Status == "" {
		run.Status = models.RunPending
	}
	rows, err := s.db.NamedQueryContext(ctx,
		`INSERT INTO runs (id, player_id, seed, ticks, replay, claimed_score, claimed_digest, status)
		 VALUES (:id, :player_id, :seed, :ticks, :replay, :claimed_score, :claimed_digest, :status)
		 RETURNING created_at`, run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&run.CreatedAt); err != nil {
			return fmt.Errorf("insert run %s: %w", run.ID, err)
		}
	}
	return rows.Err()
}

func (s *RunStore) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	var run models.RunRecord
	err := s.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

func (s *RunStore) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]models.RunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs := []models.RunRecord{}
	err := s.db.SelectContext(ctx, &runs,
		`SELECT `+runColumns+` FROM runs WHERE player_id = $1 ORDER BY created_at DESC LIMIT $2`,
		playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs for player %d: %w", playerID, err)
	}
	return runs, nil
}

// PendingBefore lists the ids of runs still pending that were submitted
// before t, oldest first.
func (s *RunStore) PendingBefore(ctx context.Context, t time.Time, limit int) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT id FROM runs WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`,
		t, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	return ids, nil
}

// MarkVerified records the server's score for a pending run. It returns
// ErrNotFound when the run is missing or no longer pending.
func (s *RunStore) MarkVerified(ctx context.Context, id string, score int, digest string) error {
	return s.finish(ctx,
		`UPDATE runs SET status = $2, score = $3, digest = $4, verified_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, models.RunVerified, score, digest)
}

func (s *RunStore) MarkRejected(ctx context.Context, id string, reason string) error {
	return s.finish(ctx,
		`UPDATE runs SET status = $2, reason = $3, verified_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, models.RunRejected, reason)
}

func (s *RunStore) finish(ctx context.Context, query string, id string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
