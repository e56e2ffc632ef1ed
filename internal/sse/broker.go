// Package sse streams console state changes to browser clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types broadcast by the console.
const (
	TypeNotificationShown   = "notification.shown"
	TypeNotificationCleared = "notification.cleared"
	TypeCollectionUpdated   = "collection.updated"
	TypeDashboardUpdated    = "dashboard.updated"
	TypeNavigationChanged   = "navigation.changed"
	TypeSessionChanged      = "session.changed"
)

const (
	clientBuffer     = 64
	defaultThrottle  = 2 * time.Second
	defaultHeartbeat = 15 * time.Second
)

// Event is one state change sent to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Slots whose latest frame is replayed to a newly connected client, in
// replay order.
var replayOrder = []string{"session", "navigation", "notification"}

func slotOf(eventType string) string {
	switch eventType {
	case TypeSessionChanged:
		return "session"
	case TypeNavigationChanged:
		return "navigation"
	case TypeNotificationShown, TypeNotificationCleared:
		return "notification"
	}
	return ""
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets the interval of keep-alive comments on open streams.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.heartbeat = d
		}
	}
}

// Broker fans events out to connected clients.
//
// All state lives in a hub owned by the run goroutine; public methods queue
// closures for it.
type Broker struct {
	throttle  time.Duration
	heartbeat time.Duration

	ops     chan func(*hub)
	quit    chan struct{}
	stopped chan struct{}
	closing sync.Once
}

type hub struct {
	clients  map[chan []byte]struct{}
	retained map[string][]byte
	seq      uint64

	throttle      time.Duration
	lastDashboard time.Time
	dashPending   bool
	dashTimer     *time.Timer
}

// NewBroker starts a broker. Collection changes refresh the dashboard at
// most once per dashboardThrottle; a change inside the window schedules one
// trailing refresh at its end.
func NewBroker(dashboardThrottle time.Duration, opts ...Option) *Broker {
	if dashboardThrottle <= 0 {
		dashboardThrottle = defaultThrottle
	}
	b := &Broker{
		throttle:  dashboardThrottle,
		heartbeat: defaultHeartbeat,
		ops:       make(chan func(*hub), 256),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	h := &hub{
		clients:   make(map[chan []byte]struct{}),
		retained:  make(map[string][]byte),
		throttle:  b.throttle,
		dashTimer: time.NewTimer(b.throttle),
	}
	h.dashTimer.Stop()
	defer h.dashTimer.Stop()

	for {
		select {
		case <-b.quit:
			for ch := range h.clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		case now := <-h.dashTimer.C:
			h.dashPending = false
			h.refreshDashboard(now)
		}
	}
}

func (h *hub) publish(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, payload))

	if slot := slotOf(ev.Type); slot != "" {
		h.retained[slot] = frame
	}
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// Slow client, drop.
		}
	}
}

func (h *hub) collectionsChanged(names []string, now time.Time) {
	for _, name := range names {
		h.publish(Event{Type: TypeCollectionUpdated, Data: map[string]string{"collection": name}})
	}
	since := now.Sub(h.lastDashboard)
	switch {
	case since >= h.throttle:
		h.refreshDashboard(now)
	case !h.dashPending:
		h.dashPending = true
		h.dashTimer.Reset(h.throttle - since)
	}
}

func (h *hub) refreshDashboard(now time.Time) {
	h.lastDashboard = now
	h.publish(Event{Type: TypeDashboardUpdated, Data: map[string]string{}})
}

func (h *hub) subscribe(ch chan []byte) {
	for _, slot := range replayOrder {
		if frame, ok := h.retained[slot]; ok {
			ch <- frame
		}
	}
	h.clients[ch] = struct{}{}
}

// do queues op for the run goroutine. It reports false once the broker
// has stopped.
func (b *Broker) do(op func(*hub)) bool {
	select {
	case <-b.stopped:
		return false
	default:
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	b.closing.Do(func() { close(b.quit) })
	<-b.stopped
}

// Subscribe registers a client. The returned channel first receives the
// latest session, navigation and notification frames, then live events.
// It is closed by Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	registered := make(chan struct{})
	if !b.do(func(h *hub) {
		h.subscribe(ch)
		close(registered)
	}) {
		close(ch)
		return ch
	}

	select {
	case <-registered:
	case <-b.stopped:
		select {
		case <-registered:
		default:
			// Queued but never run.
			close(ch)
		}
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := 0
	counted := make(chan struct{})
	if !b.do(func(h *hub) {
		n = len(h.clients)
		close(counted)
	}) {
		return 0
	}
	select {
	case <-counted:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends ev to all connected clients.
func (b *Broker) Publish(ev Event) {
	b.do(func(h *hub) { h.publish(ev) })
}

// PublishCollectionChange emits collection.updated for every name and a
// throttled dashboard.updated.
func (b *Broker) PublishCollectionChange(names ...string) {
	if len(names) == 0 {
		return
	}
	names = append([]string(nil), names...)
	b.do(func(h *hub) { h.collectionsChanged(names, time.Now()) })
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
