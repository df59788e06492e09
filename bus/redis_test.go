package bus

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskhub/domain"
)

func setupRedisBus(t *testing.T) (*RedisBus, func()) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	b := NewRedisBus(NewBroker(8, log.New()), rc, "taskhub:events", log.New())
	return b, func() {
		rc.Close()
		m.Close()
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	b, cleanup := setupRedisBus(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	// wait for the subscription to start
	time.Sleep(50 * time.Millisecond)

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	task := &domain.Task{ID: "t1", Title: "Write report", Status: domain.StatusTodo}
	if err := b.Publish(context.Background(), domain.NewTaskCreated(task)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Type != domain.EventTaskCreated || ev.TaskID != "t1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Task == nil || ev.Task.Title != "Write report" {
			t.Fatalf("expected full document, got %+v", ev.Task)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered through redis")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit")
	}
}

func TestRedisBusIgnoresMalformedPayload(t *testing.T) {
	b, cleanup := setupRedisBus(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	if err := b.rc.Publish(context.Background(), b.channel, "not json").Err(); err != nil {
		t.Fatalf("publish raw: %v", err)
	}
	if err := b.Publish(context.Background(), domain.NewTaskDeleted("t9")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Type != domain.EventTaskDeleted || ev.TaskID != "t9" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid event after malformed payload was not delivered")
	}
}
