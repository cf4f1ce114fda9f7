package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/bouncer/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrNameTaken          = errors.New("store: name already taken")
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type PlayerStore struct {
	db *sqlx.DB
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

// Create registers a player with a bcrypt hash of password.
func (s *PlayerStore) Create(ctx context.Context, name, password string) (*models.Player, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &models.Player{Name: name, PasswordHash: string(hash)}
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO players (name, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		name, p.PasswordHash,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("insert player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) GetByName(ctx context.Context, name string) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `SELECT id, name, password_hash, created_at FROM players WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", name, err)
	}
	return &p, nil
}

func (s *PlayerStore) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `SELECT id, name, password_hash, created_at FROM players WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", id, err)
	}
	return &p, nil
}

// Authenticate returns the player when password matches. Unknown names and
// wrong passwords both give ErrInvalidCredentials.
func (s *PlayerStore) Authenticate(ctx context.Context, name, password string) (*models.Player, error) {
	p, err := s.GetByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}
