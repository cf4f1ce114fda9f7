package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/middleware"
	"github.com/playmatatu/bouncer/internal/models"
	"github.com/playmatatu/bouncer/internal/physics"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/ws"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	rdb    *redis.Client
	cfg    *config.Config
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Environment:     "test",
		FrontendURL:     "http://localhost:5173",
		JWTSecret:       "test-secret",
		TokenTTLHours:   1,
		MaxReplayTicks:  3600,
		FramesPerSecond: 30,
	}
	router := gin.New()
	SetupRoutes(router, sqlx.NewDb(sqlDB, "postgres"), rdb, cfg, physics.DefaultParams(), ws.NewHub())
	return &apiFixture{router: router, mock: mock, rdb: rdb, cfg: cfg}
}

func (f *apiFixture) token(t *testing.T, playerID int64) string {
	t.Helper()
	tok, _, err := middleware.NewToken(f.cfg, playerID)
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var runColumns = []string{
	"id", "player_id", "seed", "ticks", "replay", "claimed_score", "claimed_digest",
	"status", "score", "digest", "reason", "created_at", "verified_at",
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	w := f.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestConfigEndpoint(t *testing.T) {
	f := newAPI(t)
	w := f.do(t, http.MethodGet, "/api/v1/config", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(physics.DefaultTickRate), body["tick_rate"])
	assert.Equal(t, float64(3600), body["max_replay_ticks"])
}

func TestRegister(t *testing.T) {
	f := newAPI(t)
	f.mock.ExpectQuery("INSERT INTO players").
		WithArgs("ada", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now()))

	w := f.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{"name": "ada", "password": "long-enough"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)

	id, err := middleware.ParseToken(f.cfg, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterValidation(t *testing.T) {
	f := newAPI(t)
	cases := map[string]gin.H{
		"bad name":       {"name": "a!", "password": "long-enough"},
		"short password": {"name": "ada", "password": "short"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "password_hash", "created_at"}).
			AddRow(int64(5), "ada", string(hash), time.Now())
	}

	f := newAPI(t)
	f.mock.ExpectQuery("FROM players WHERE name").WithArgs("ada").WillReturnRows(rows())
	w := f.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"name": "ada", "password": "right-password"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	f.mock.ExpectQuery("FROM players WHERE name").WithArgs("ada").WillReturnRows(rows())
	w = f.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"name": "ada", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

var testReplay = game.Replay{Seed: 11, Ticks: 120, Bounces: []uint32{30, 90}}

func TestSimulate(t *testing.T) {
	f := newAPI(t)
	want, err := game.Simulate(testReplay, physics.DefaultParams())
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/v1/simulate", gin.H{"replay": testReplay}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, want.Digest, result["digest"])
	assert.Equal(t, float64(want.Score), result["score"])

	w = f.do(t, http.MethodPost, "/api/v1/simulate", gin.H{"replay": testReplay, "frames_every": 30}, "")
	require.Equal(t, http.StatusOK, w.Code)
	frames := decode(t, w)["frames"].([]interface{})
	assert.Len(t, frames, 5)
}

func TestSimulateRejectsBadReplays(t *testing.T) {
	f := newAPI(t)
	cases := map[string]game.Replay{
		"too long":          {Seed: 1, Ticks: 3601},
		"no ticks":          {Seed: 1},
		"bounce after end":  {Seed: 1, Ticks: 10, Bounces: []uint32{10}},
		"unordered bounces": {Seed: 1, Ticks: 10, Bounces: []uint32{5, 5}},
	}
	for name, rp := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/simulate", gin.H{"replay": rp}, "")
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestSubmitRunRequiresAuth(t *testing.T) {
	f := newAPI(t)
	w := f.do(t, http.MethodPost, "/api/v1/runs", gin.H{"replay": testReplay, "claimed_score": 10}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRunQueuesVerification(t *testing.T) {
	f := newAPI(t)
	f.mock.ExpectQuery("INSERT INTO runs").
		WithArgs(sqlmock.AnyArg(), int64(3), int64(11), 120, sqlmock.AnyArg(), 40, "", models.RunPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	w := f.do(t, http.MethodPost, "/api/v1/runs", gin.H{"replay": testReplay, "claimed_score": 40}, f.token(t, 3))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.NoError(t, f.mock.ExpectationsWereMet())

	id := w.Header().Get("X-Run-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	body := decode(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, models.RunPending, body["status"])

	due, err := rstore.NewRunQueue(f.rdb).Due(context.Background(), time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, due)
}

func TestSubmitRunValidatesReplay(t *testing.T) {
	f := newAPI(t)
	tok := f.token(t, 3)

	w := f.do(t, http.MethodPost, "/api/v1/runs", gin.H{"replay": game.Replay{Seed: 1, Ticks: 99999}, "claimed_score": 1}, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/runs", gin.H{"replay": testReplay, "claimed_score": -1}, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetRun(t *testing.T) {
	f := newAPI(t)
	id := uuid.NewString()
	now := time.Now()
	f.mock.ExpectQuery("FROM runs WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runColumns).AddRow(
			id, int64(3), int64(11), int64(120), []byte(`{}`), int64(40), "",
			models.RunRejected, nil, nil, "score mismatch", now, now,
		))

	w := f.do(t, http.MethodGet, "/api/v1/runs/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, models.RunRejected, body["status"])
	assert.Equal(t, "score mismatch", body["reason"])

	w = f.do(t, http.MethodGet, "/api/v1/runs/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	missing := uuid.NewString()
	f.mock.ExpectQuery("FROM runs WHERE id").WithArgs(missing).WillReturnRows(sqlmock.NewRows(runColumns))
	w = f.do(t, http.MethodGet, "/api/v1/runs/"+missing, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMyRuns(t *testing.T) {
	f := newAPI(t)
	f.mock.ExpectQuery("FROM runs WHERE player_id").
		WithArgs(int64(3), 20).
		WillReturnRows(sqlmock.NewRows(runColumns).AddRow(
			uuid.NewString(), int64(3), int64(11), int64(120), []byte(`{}`), int64(40), "",
			models.RunPending, nil, nil, nil, time.Now(), nil,
		))

	w := f.do(t, http.MethodGet, "/api/v1/me/runs", nil, f.token(t, 3))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	runs := decode(t, w)["runs"].([]interface{})
	assert.Len(t, runs, 1)
}

func TestLeaderboard(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	board := rstore.NewLeaderboard(f.rdb)
	require.NoError(t, board.Submit(ctx, "ada", 300))
	require.NoError(t, board.Submit(ctx, "bob", 500))
	require.NoError(t, board.Submit(ctx, "cy", 100))

	w := f.do(t, http.MethodGet, "/api/v1/leaderboard?limit=2&player=cy", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	entries := body["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].(map[string]interface{})["player"])
	assert.Equal(t, "ada", entries[1].(map[string]interface{})["player"])

	me := body["player"].(map[string]interface{})
	assert.Equal(t, float64(3), me["rank"])
	assert.Equal(t, float64(100), me["score"])
}
