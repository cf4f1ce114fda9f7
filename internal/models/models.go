package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Run statuses
const (
	RunPending  = "pending"
	RunVerified = "verified"
	RunRejected = "rejected"
)

// Player is a registered account
type Player struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RunRecord is a submitted replay and, once the worker has looked at it, the
// server's verdict.
type RunRecord struct {
	ID            string          `db:"id" json:"id"`
	PlayerID      int64           `db:"player_id" json:"player_id"`
	Seed          int64           `db:"seed" json:"seed"`
	Ticks         int             `db:"ticks" json:"ticks"`
	Replay        json.RawMessage `db:"replay" json:"replay"`
	ClaimedScore  int             `db:"claimed_score" json:"claimed_score"`
	ClaimedDigest string          `db:"claimed_digest" json:"claimed_digest,omitempty"`
	Status        string          `db:"status" json:"status"`
	Score         sql.NullInt64   `db:"score" json:"score,omitempty"`
	Digest        sql.NullString  `db:"digest" json:"digest,omitempty"`
	Reason        sql.NullString  `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	VerifiedAt    sql.NullTime    `db:"verified_at" json:"verified_at,omitempty"`
}

// RunSummary is the public view of a run.
type RunSummary struct {
	ID         string     `json:"id"`
	PlayerID   int64      `json:"player_id"`
	Status     string     `json:"status"`
	Ticks      int        `json:"ticks"`
	Claimed    int        `json:"claimed_score"`
	Score      *int64     `json:"score,omitempty"`
	Digest     string     `json:"digest,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (r *RunRecord) Summary() RunSummary {
	s := RunSummary{
		ID:        r.ID,
		PlayerID:  r.PlayerID,
		Status:    r.Status,
		Ticks:     r.Ticks,
		Claimed:   r.ClaimedScore,
		CreatedAt: r.CreatedAt,
	}
	if r.Score.Valid {
		v := r.Score.Int64
		s.Score = &v
	}
	if r.Digest.Valid {
		s.Digest = r.Digest.String
	}
	if r.Reason.Valid {
		s.Reason = r.Reason.String
	}
	if r.VerifiedAt.Valid {
		v := r.VerifiedAt.Time
		s.VerifiedAt = &v
	}
	return s
}
