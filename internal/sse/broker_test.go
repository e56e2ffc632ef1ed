package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// drain collects the frames that arrive on ch within wait.
func drain(ch chan []byte, wait time.Duration) []string {
	var frames []string
	deadline := time.After(wait)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return frames
			}
			frames = append(frames, string(msg))
		case <-deadline:
			return frames
		}
	}
}

func count(frames []string, eventType string) int {
	n := 0
	for _, f := range frames {
		if strings.Contains(f, "event: "+eventType+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestPublishFramesCarrySequenceIDs(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeNotificationShown, Data: map[string]string{"message": "Tersimpan"}})
	b.Publish(Event{Type: TypeNotificationCleared, Data: map[string]string{"message": "Tersimpan"}})

	frames := drain(ch, 100*time.Millisecond)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2: %q", len(frames), frames)
	}
	want := "id: 1\nevent: notification.shown\ndata: {\"message\":\"Tersimpan\"}\n\n"
	if frames[0] != want {
		t.Errorf("first frame = %q, want %q", frames[0], want)
	}
	if !strings.HasPrefix(frames[1], "id: 2\nevent: notification.cleared\n") {
		t.Errorf("second frame = %q", frames[1])
	}
}

func TestNewClientReceivesLatestState(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.Publish(Event{Type: TypeNavigationChanged, Data: map[string]string{"activeView": "Klien"}})
	b.Publish(Event{Type: TypeSessionChanged, Data: map[string]bool{"authenticated": true}})
	b.Publish(Event{Type: TypeNavigationChanged, Data: map[string]string{"activeView": "Proyek"}})
	b.Publish(Event{Type: TypeNotificationShown, Data: map[string]string{"message": "Halo"}})
	b.Publish(Event{Type: TypeNotificationCleared, Data: map[string]string{"message": "Halo"}})
	b.PublishCollectionChange("leads")

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	frames := drain(ch, 50*time.Millisecond)

	if len(frames) != 3 {
		t.Fatalf("replayed %d frames, want 3: %q", len(frames), frames)
	}
	if !strings.Contains(frames[0], "event: session.changed") {
		t.Errorf("frame 0 = %q, want session first", frames[0])
	}
	if !strings.Contains(frames[1], `"activeView":"Proyek"`) {
		t.Errorf("frame 1 = %q, want latest navigation", frames[1])
	}
	if !strings.Contains(frames[2], "event: notification.cleared") {
		t.Errorf("frame 2 = %q, want latest notification state", frames[2])
	}
}

func TestCollectionChangeDashboardThrottle(t *testing.T) {
	b := NewBroker(150 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// A settlement touches several collections in one change.
	b.PublishCollectionChange("team-project-payments", "transactions")
	b.PublishCollectionChange("leads")
	b.PublishCollectionChange("clients")

	early := drain(ch, 50*time.Millisecond)
	if got := count(early, TypeCollectionUpdated); got != 4 {
		t.Errorf("collection events = %d, want 4", got)
	}
	if got := count(early, TypeDashboardUpdated); got != 1 {
		t.Errorf("dashboard events inside the window = %d, want 1", got)
	}

	// The changes inside the window are folded into one trailing refresh.
	late := drain(ch, 300*time.Millisecond)
	if got := count(late, TypeDashboardUpdated); got != 1 {
		t.Errorf("trailing dashboard events = %d, want 1", got)
	}
}

// flushRecorder guards the recorder body shared with the handler goroutine.
type flushRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (f *flushRecorder) Header() http.Header { return f.rec.Header() }

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec.Write(p)
}

func (f *flushRecorder) WriteHeader(code int) { f.rec.WriteHeader(code) }

func (f *flushRecorder) Flush() {}

func (f *flushRecorder) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(10*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &flushRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeNavigationChanged, Data: map[string]string{"activeView": "Proyek"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: navigation.changed") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, ": ping\n\n") {
		t.Errorf("handler output missing heartbeat: %q", body)
	}
	if got := w.rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: TypeCollectionUpdated, Data: map[string]int{"i": i}})
	}
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, slow client should stay connected", n)
	}
	if got := len(drain(ch, 50*time.Millisecond)); got != clientBuffer {
		t.Errorf("buffered frames = %d, want %d", got, clientBuffer)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: TypeSessionChanged, Data: map[string]bool{"authenticated": false}})
	b.PublishCollectionChange("clients")
	b.Unsubscribe(ch)
	b.Close()

	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
