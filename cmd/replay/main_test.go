package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadReplayFormats(t *testing.T) {
	want := game.Replay{Seed: 5, Ticks: 60, Bounces: []uint32{10, 20}}

	bare, err := readReplay(writeFile(t, "bare.json", `{"seed":5,"ticks":60,"bounces":[10,20]}`))
	require.NoError(t, err)
	assert.Equal(t, want, bare)

	wrapped, err := readReplay(writeFile(t, "wrapped.json",
		`{"claimed_score":3,"replay":{"seed":5,"ticks":60,"bounces":[10,20]}}`))
	require.NoError(t, err)
	assert.Equal(t, want, wrapped)

	_, err = readReplay(writeFile(t, "bad.json", `[1,2`))
	assert.Error(t, err)
}

func TestRunPrintsResultAndFrames(t *testing.T) {
	path := writeFile(t, "run.json", `{"seed":5,"ticks":60,"bounces":[10]}`)
	frames := filepath.Join(t.TempDir(), "frames.msgpack")
	*framesFlag = frames
	*everyFlag = 20
	defer func() { *framesFlag = "" }()

	var out bytes.Buffer
	require.NoError(t, run(path, &out))
	assert.Contains(t, out.String(), `"digest"`)

	f, err := os.Open(frames)
	require.NoError(t, err)
	defer f.Close()
	dec := msgpack.NewDecoder(f)
	n := 0
	for {
		var fr game.Frame
		if err := dec.Decode(&fr); err != nil {
			break
		}
		assert.Equal(t, n*20, fr.Tick)
		n++
	}
	assert.Equal(t, 4, n)
}

func TestRunVerifiesClaims(t *testing.T) {
	rp := game.Replay{Seed: 5, Ticks: 60, Bounces: []uint32{10}}
	res, err := game.Simulate(rp, physics.DefaultParams())
	require.NoError(t, err)
	path := writeFile(t, "run.json", `{"seed":5,"ticks":60,"bounces":[10]}`)

	*scoreFlag = res.Score
	*digestFlag = res.Digest
	var out bytes.Buffer
	require.NoError(t, run(path, &out))
	assert.Contains(t, out.String(), "verified")

	*scoreFlag = res.Score + 1
	*digestFlag = ""
	assert.ErrorIs(t, run(path, &bytes.Buffer{}), game.ErrReplayMismatch)
	*scoreFlag = -1
}
