package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/storage"
)

func TestHub_StreamsEvents(t *testing.T) {
	h, _, hub := newServer(t, storage.NewMemory())
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	for hub.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	resp, err := http.Post(ts.URL+lessonPath+"/complete", "application/json", nil)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()

	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	var event progress.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if event.Type != progress.EventLessonCompleted || event.SubtopicSlug != "filesystem-hierarchy" || event.ID == "" {
		t.Errorf("event = %+v", event)
	}
}

func TestHub_LogEventWithoutSubscribers(t *testing.T) {
	_, _, hub := newServer(t, storage.NewMemory())
	if err := hub.LogEvent(progress.Event{Type: progress.EventScheduleSet}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}
