// Package bus fans task change events out to connected sessions.
package bus

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskhub/domain"
)

// Bus is the injectable notification channel between the mutation service
// and live sessions. Delivery is broadcast-only and best effort: every
// subscriber gets every event in publish order, sessions gone at publish
// time simply miss it, and there is no replay log.
type Bus interface {
	Subscribe() *Subscription
	Unsubscribe(*Subscription)
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// Subscription is one session's event feed. C is closed on Unsubscribe.
type Subscription struct {
	C  <-chan domain.ChangeEvent
	ch chan domain.ChangeEvent
}

// Broker is the in-process Bus. The subscriber registry is ephemeral and
// rebuilt from connects/disconnects, never persisted.
type Broker struct {
	logger *log.Logger
	buffer int

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

const defaultBuffer = 64

// NewBroker creates a broker whose subscriptions buffer up to buffer events.
func NewBroker(buffer int, logger *log.Logger) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		logger: logger,
		buffer: buffer,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new session feed.
func (b *Broker) Subscribe() *Subscription {
	ch := make(chan domain.ChangeEvent, b.buffer)
	sub := &Subscription{C: ch, ch: ch}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the feed and closes its channel. Safe to call once
// per subscription; publishes after removal are simply not delivered.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// Publish delivers ev to every current subscriber. Sends happen under the
// registry lock so all subscribers observe the same relative event order.
// A subscriber whose buffer is full drops the event rather than stalling
// the mutation path.
func (b *Broker) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	b.mu.Lock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			if b.logger != nil {
				b.logger.WithFields(log.Fields{"event": ev.Type, "task": ev.TaskID}).
					Warn("subscriber buffer full, dropping event")
			}
		}
	}
	b.mu.Unlock()
	return nil
}
