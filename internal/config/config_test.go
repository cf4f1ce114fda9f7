package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("VERIFY_WORKERS", "7")
	t.Setenv("MAX_REPLAY_TICKS", "not-a-number")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 7, cfg.VerifyWorkers)
	assert.Equal(t, physics.DefaultTickRate*60*30, cfg.MaxReplayTicks)
	assert.True(t, cfg.MigrateOnStart)
}

func TestLoadPhysicsDefaults(t *testing.T) {
	p, err := LoadPhysics("")
	require.NoError(t, err)
	assert.Equal(t, physics.DefaultParams(), p)
}

func TestLoadPhysicsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gravity: 1500\nbounce_speed: 700\n"), 0o644))

	p, err := LoadPhysics(path)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, p.Gravity)
	assert.Equal(t, 700.0, p.BounceSpeed)
	assert.Equal(t, physics.DefaultParams().ContactScale, p.ContactScale)
}

func TestLoadPhysicsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sliding_scale: 1.4\n"), 0o644))

	_, err := LoadPhysics(path)
	assert.ErrorIs(t, err, physics.ErrInvalidParams)
}

func TestLoadPhysicsMissingFile(t *testing.T) {
	_, err := LoadPhysics(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
