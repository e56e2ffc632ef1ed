// Package notify implements the transient top-level notification.
//
// Only one message is visible at a time. Every Publish bumps a generation
// counter and arms an expiry timer bound to that generation; an expiry whose
// generation is no longer current does nothing, so a stale timer can never
// clear a newer message.
package notify

import (
	"sync"
	"time"
)

// DefaultDuration is how long a message stays visible when no duration is given.
const DefaultDuration = 3000 * time.Millisecond

// EventKind tells listeners what happened.
type EventKind string

const (
	EventShown   EventKind = "shown"
	EventCleared EventKind = "cleared"
)

// Notification is the currently visible message.
type Notification struct {
	Message    string    `json:"message"`
	Generation uint64    `json:"generation"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Event is delivered to listeners on every show and every expiry.
type Event struct {
	Kind         EventKind    `json:"kind"`
	Notification Notification `json:"notification"`
}

// Listener is called outside the scheduler lock, one event at a time and in
// the order the state changed. It must not call Publish.
type Listener func(Event)

// Scheduler owns the visible notification and its expiry timer.
type Scheduler struct {
	mu         sync.Mutex
	current    Notification
	generation uint64
	timer      *time.Timer
	closed     bool

	defaultTTL time.Duration
	listener   Listener
	nowFn      func() time.Time

	// Events are numbered under mu and delivered strictly in that order.
	seqMu   sync.Mutex
	seqCond *sync.Cond
	nextSeq uint64
	turn    uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDefaultDuration sets the duration used when Publish gets d <= 0.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.defaultTTL = d
		}
	}
}

// WithListener registers fn for show/clear events.
func WithListener(fn Listener) Option {
	return func(s *Scheduler) {
		s.listener = fn
	}
}

// NewScheduler creates an idle scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		defaultTTL: DefaultDuration,
		nowFn:      time.Now,
	}
	s.seqCond = sync.NewCond(&s.seqMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish makes message visible for d (or the default when d <= 0),
// replacing any visible message and restarting the expiry. It returns the
// generation assigned to the message.
func (s *Scheduler) Publish(message string, d time.Duration) uint64 {
	if d <= 0 {
		d = s.defaultTTL
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.current = Notification{
		Message:    message,
		Generation: gen,
		ExpiresAt:  s.nowFn().Add(d),
	}
	s.timer = time.AfterFunc(d, func() { s.expire(gen) })
	shown := s.current
	seq := s.ticket()
	s.mu.Unlock()

	s.dispatch(seq, Event{Kind: EventShown, Notification: shown})
	return gen
}

// Current returns the visible notification and whether there is one.
func (s *Scheduler) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current.Message != ""
}

// Close stops the pending timer. Publish after Close is a no-op.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire clears the message only if gen is still the current generation.
func (s *Scheduler) expire(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation || s.current.Message == "" {
		s.mu.Unlock()
		return false
	}
	cleared := s.current
	s.current = Notification{}
	s.timer = nil
	seq := s.ticket()
	s.mu.Unlock()

	s.dispatch(seq, Event{Kind: EventCleared, Notification: cleared})
	return true
}

// ticket numbers the next event. Callers hold mu.
func (s *Scheduler) ticket() uint64 {
	seq := s.nextSeq
	s.nextSeq++
	return seq
}

// dispatch waits until every earlier event was delivered, then delivers ev.
func (s *Scheduler) dispatch(seq uint64, ev Event) {
	s.seqMu.Lock()
	for s.turn != seq {
		s.seqCond.Wait()
	}
	s.seqMu.Unlock()

	defer func() {
		s.seqMu.Lock()
		s.turn++
		s.seqCond.Broadcast()
		s.seqMu.Unlock()
	}()
	if s.listener != nil {
		s.listener(ev)
	}
}
