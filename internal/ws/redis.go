package ws

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/bouncer/internal/logging"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/redis/go-redis/v9"
)

// StartEventRelay subscribes to run events and forwards each one, as JSON
// text, to the spectators of that run. It returns once the subscription is
// confirmed.
func StartEventRelay(ctx context.Context, rdb *redis.Client, hub *Hub) error {
	log := logging.Named("ws")
	if rdb == nil {
		log.Warn("redis client not set; run event relay not started")
		return nil
	}

	pubsub := rstore.SubscribeRunEvents(ctx, rdb)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	go func() {
		defer pubsub.Close()
		log.Infow("run event relay started", "channel", rstore.RunEventsChannel)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("run event relay stopping")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev rstore.RunEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warnw("invalid run event payload", "error", err)
					continue
				}
				if ev.RunID == "" {
					continue
				}
				n := hub.Broadcast(ev.RunID, websocket.TextMessage, []byte(msg.Payload))
				log.Debugw("relayed run event", "type", ev.Type, "run", ev.RunID, "spectators", n)
			}
		}
	}()
	return nil
}
