package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const updatesChannel = "ledger.updates"

// RedisBridge relays ledger updates between instances over Redis pub/sub
// so a viewer connected to one instance sees writes made through another.
type RedisBridge struct {
	client     *redis.Client
	broker     *Broker
	instanceID string
}

// NewRedisBridge creates a bridge between the local broker and Redis
func NewRedisBridge(client *redis.Client, broker *Broker) *RedisBridge {
	return &RedisBridge{
		client:     client,
		broker:     broker,
		instanceID: uuid.NewString(),
	}
}

// Announce publishes a locally produced update to the shared channel.
func (b *RedisBridge) Announce(ctx context.Context, update Update) error {
	update.Origin = b.instanceID
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, updatesChannel, payload).Err()
}

// Run consumes the shared channel and republishes remote updates into
// the local broker. It blocks until the context is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, updatesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update Update
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				log.Printf("feed: dropping malformed update: %v", err)
				continue
			}
			if update.Origin == b.instanceID {
				// Already delivered locally at write time.
				continue
			}
			b.broker.Publish(update)
		}
	}
}
