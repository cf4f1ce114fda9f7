package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/physics"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/playmatatu/bouncer/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testReplay = game.Replay{Seed: 11, Ticks: 120, Bounces: []uint32{30}}

func newWatchServer(t *testing.T, hub *Hub, fps int) *httptest.Server {
	t.Helper()
	load := func(_ context.Context, id string) (game.Replay, error) {
		if id != "r1" {
			return game.Replay{}, store.ErrNotFound
		}
		return testReplay, nil
	}
	router := gin.New()
	router.GET("/runs/:id/watch", ServeWatch(hub, load, physics.DefaultParams(), fps))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func startHub(t *testing.T) (*Hub, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub, ctx
}

// readPlayback reads one full playback and returns the binary frames and the
// closing message.
func readPlayback(t *testing.T, conn *websocket.Conn) ([]game.Frame, map[string]interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	var start map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &start))
	require.Equal(t, MsgPlaybackStart, start["type"])
	assert.Equal(t, float64(testReplay.Ticks), start["ticks"])

	var frames []game.Frame
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.BinaryMessage {
			var f game.Frame
			require.NoError(t, msgpack.Unmarshal(data, &f))
			frames = append(frames, f)
			continue
		}
		var done map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &done))
		return frames, done
	}
}

func TestWatchStreamsWholeReplay(t *testing.T) {
	hub, _ := startHub(t)
	srv := newWatchServer(t, hub, 120)
	conn := dial(t, srv, "/runs/r1/watch")

	frames, done := readPlayback(t, conn)
	require.Equal(t, MsgPlaybackDone, done["type"])

	// 120 ticks at 3 ticks per frame plus the opening frame.
	require.Len(t, frames, 41)
	assert.Equal(t, 0, frames[0].Tick)
	assert.Equal(t, testReplay.Ticks, frames[len(frames)-1].Tick)
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].Tick, frames[i-1].Tick)
	}

	want, err := game.Simulate(testReplay, physics.DefaultParams())
	require.NoError(t, err)
	result := done["result"].(map[string]interface{})
	assert.Equal(t, want.Digest, result["digest"])
	assert.Equal(t, float64(want.Score), result["score"])
	assert.Equal(t, want.Score, frames[len(frames)-1].Score)
}

func TestWatchUnknownRun(t *testing.T) {
	hub, _ := startHub(t)
	srv := newWatchServer(t, hub, 30)

	resp, err := http.Get(srv.URL + "/runs/nope/watch")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRelayForwardsRunEvents(t *testing.T) {
	hub, ctx := startHub(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, StartEventRelay(ctx, rdb, hub))

	srv := newWatchServer(t, hub, 360)
	conn := dial(t, srv, "/runs/r1/watch")
	_, done := readPlayback(t, conn)
	require.Equal(t, MsgPlaybackDone, done["type"])
	require.Equal(t, 1, hub.RoomSize("r1"))

	_, err := rstore.PublishRunEvent(ctx, rdb, rstore.RunEvent{Type: rstore.EventRunRejected, RunID: "other"})
	require.NoError(t, err)
	_, err = rstore.PublishRunEvent(ctx, rdb, rstore.RunEvent{Type: rstore.EventRunVerified, RunID: "r1", Score: 77})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	var ev rstore.RunEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, rstore.EventRunVerified, ev.Type)
	assert.Equal(t, 77, ev.Score)
}

func TestHubLeaveEmptiesRoom(t *testing.T) {
	hub, _ := startHub(t)
	srv := newWatchServer(t, hub, 360)
	conn := dial(t, srv, "/runs/r1/watch")
	readPlayback(t, conn)
	require.Equal(t, 1, hub.RoomSize("r1"))

	conn.Close()
	require.Eventually(t, func() bool { return hub.RoomSize("r1") == 0 }, 5*time.Second, 10*time.Millisecond)
}
