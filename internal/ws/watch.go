package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/physics"
	"github.com/playmatatu/bouncer/internal/store"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// ReplayLoader fetches the replay stored for a run id.
type ReplayLoader func(ctx context.Context, runID string) (game.Replay, error)

// Message types sent as JSON text frames. Simulation frames go out as binary
// msgpack.
const (
	MsgPlaybackStart = "playback_start"
	MsgPlaybackDone  = "playback_done"
	MsgError         = "error"
)

type playbackStart struct {
	Type  string  `json:"type"`
	RunID string  `json:"run_id"`
	Ticks int     `json:"ticks"`
	FPS   int     `json:"fps"`
	Field fieldWH `json:"field"`
}

type fieldWH struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type playbackDone struct {
	Type   string       `json:"type"`
	RunID  string       `json:"run_id"`
	Result *game.Result `json:"result"`
}

// ServeWatch replays a stored run to a spectator at fps frames per second,
// then keeps the socket open so run events for it reach the spectator.
func ServeWatch(hub *Hub, load ReplayLoader, params physics.Params, fps int) gin.HandlerFunc {
	if fps <= 0 {
		fps = 30
	}
	log := logging.Named("ws")
	return func(c *gin.Context) {
		runID := c.Param("id")
		rp, err := load(c.Request.Context(), runID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if err != nil {
			log.Errorw("load replay", "run", runID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		pb, err := game.NewPlayback(rp, params)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnw("websocket upgrade", "run", runID, "error", err)
			return
		}

		client := newClient(conn, runID)
		if !hub.join(client) {
			conn.Close()
			return
		}
		go client.writePump(log)
		go stream(client, pb, fps, log)

		client.readPump()
		hub.leave(client)
	}
}

// stream plays pb into the client's queue, one frame per fps tick.
func stream(c *Client, pb *game.Playback, fps int, log *zap.SugaredLogger) {
	field := pb.Run().Field()
	if !c.sendJSON(playbackStart{
		Type:  MsgPlaybackStart,
		RunID: c.runID,
		Ticks: pb.Ticks(),
		FPS:   fps,
		Field: fieldWH{Width: field.Width, Height: field.Height},
	}) {
		return
	}

	ticksPerFrame := physics.DefaultTickRate / fps
	if ticksPerFrame < 1 {
		ticksPerFrame = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	if !sendFrame(c, pb.Run().Frame()) {
		return
	}
	for !pb.Done() {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
		if _, err := pb.Advance(ticksPerFrame); err != nil {
			log.Warnw("playback", "run", c.runID, "error", err)
			c.sendJSON(gin.H{"type": MsgError, "message": err.Error()})
			return
		}
		if !sendFrame(c, pb.Run().Frame()) {
			return
		}
	}
	c.sendJSON(playbackDone{Type: MsgPlaybackDone, RunID: c.runID, Result: pb.Result()})
}

func sendFrame(c *Client, f game.Frame) bool {
	data, err := msgpack.Marshal(&f)
	if err != nil {
		return false
	}
	return c.enqueue(websocket.BinaryMessage, data)
}
