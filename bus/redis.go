package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskhub/domain"
)

// RedisBus bridges a local Broker over a Redis pub/sub channel so every
// instance's sessions observe every mutation, whichever instance handled
// it. Locally produced events also round-trip through Redis, keeping the
// delivery order identical on all instances.
type RedisBus struct {
	local   *Broker
	rc      *redis.Client
	channel string
	logger  *log.Logger
}

func NewRedisBus(local *Broker, rc *redis.Client, channel string, logger *log.Logger) *RedisBus {
	return &RedisBus{local: local, rc: rc, channel: channel, logger: logger}
}

func (b *RedisBus) Subscribe() *Subscription      { return b.local.Subscribe() }
func (b *RedisBus) Unsubscribe(sub *Subscription) { b.local.Unsubscribe(sub) }

// Publish sends the event to the Redis channel. Local fan-out happens when
// Run receives it back.
func (b *RedisBus) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rc.Publish(ctx, b.channel, data).Err()
}

// Run subscribes to the Redis channel and re-broadcasts received events to
// local sessions until ctx is cancelled, reconnecting when the pub/sub
// connection drops.
func (b *RedisBus) Run(ctx context.Context) {
	for {
		sub := b.rc.Subscribe(ctx, b.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Errorf("unable to parse change event: %v", err)
					continue
				}
				_ = b.local.Publish(ctx, ev)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
