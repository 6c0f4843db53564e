package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/logging"
)

// RedisBroker shares events between API instances. Publish writes to the
// channel "{prefix}:{auction_id}"; Relay pattern-subscribes to every auction
// channel and hands payloads to the local Hub. When the broker is in use the
// Hub receives events only through Relay, so each client sees each event once.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

var _ Publisher = (*RedisBroker)(nil)

// NewRedisBroker wraps a connected client. prefix defaults to "auction_events".
func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "auction_events"
	}
	return &RedisBroker{client: client, prefix: prefix}
}

func (b *RedisBroker) channel(auctionID string) string {
	return b.prefix + ":" + auctionID
}

// Publish implements Publisher.
func (b *RedisBroker) Publish(ctx context.Context, ev model.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel(ev.AuctionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Relay forwards every auction channel into hub until ctx is done.
// Run it in a goroutine.
func (b *RedisBroker) Relay(ctx context.Context, hub *Hub) error {
	pubsub := b.client.PSubscribe(ctx, b.prefix+":*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s:*: %w", b.prefix, err)
	}
	log := logging.Component("redis-relay")
	log.Info("relaying auction events", "pattern", b.prefix+":*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			auctionID, found := strings.CutPrefix(msg.Channel, b.prefix+":")
			if !found || auctionID == "" {
				log.Warn("ignoring message on unexpected channel", "channel", msg.Channel)
				continue
			}
			if err := hub.Broadcast(ctx, auctionID, []byte(msg.Payload)); err != nil {
				return err
			}
		}
	}
}
