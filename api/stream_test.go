package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskhub/bus"
	"taskhub/domain"
)

func newStreamEnv() (*echo.Echo, *bus.Broker) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	broker := bus.NewBroker(0, logger)

	auth := stubAuth{actors: map[string]domain.Actor{
		"alice": {ID: "user-alice", Role: domain.RoleUser},
	}}
	e := echo.New()
	e.GET("/api/stream", streamEvents(broker, auth))
	return e, broker
}

func TestStreamRejectsUnauthenticated(t *testing.T) {
	e, _ := newStreamEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStreamDeliversEvents(t *testing.T) {
	e, broker := newStreamEnv()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream?token=alice", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		e.ServeHTTP(rec, req)
		close(done)
	}()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)

	task := &domain.Task{ID: "task-1", Title: "Write report", AssignedTo: "user-bob", CreatedBy: "user-alice"}
	if err := broker.Publish(context.Background(), domain.NewTaskCreated(task)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := broker.Publish(context.Background(), domain.NewTaskDeleted("task-1")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not exit on context cancel")
	}

	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, ": connected\n\n") {
		t.Fatalf("missing connected comment, body %q", body)
	}
	if !strings.Contains(body, "event: taskCreated\ndata: ") {
		t.Fatalf("missing created frame, body %q", body)
	}
	if !strings.Contains(body, `"taskId":"task-1"`) {
		t.Fatalf("payload missing task id, body %q", body)
	}
	if !strings.Contains(body, `"title":"Write report"`) {
		t.Fatalf("created frame missing document, body %q", body)
	}
	if !strings.Contains(body, "event: taskDeleted\n") {
		t.Fatalf("missing deleted frame, body %q", body)
	}
	if created, deleted := strings.Index(body, "event: taskCreated"), strings.Index(body, "event: taskDeleted"); created > deleted {
		t.Fatalf("frames out of publish order, body %q", body)
	}
}
