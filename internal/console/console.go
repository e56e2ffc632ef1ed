// Package console wires the store, notification scheduler, navigation
// orchestrator and session gate into the single in-process core that the
// HTTP API and the MCP server drive.
package console

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/metrics"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/navigation"
	"github.com/venapictures/vena/internal/notify"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/sse"
	"github.com/venapictures/vena/internal/store"
)

// Messages shown after successful public and composite actions.
const (
	MsgSuggestionReceived = "Terima kasih! Saran Anda telah kami terima."
	MsgSettlementRecorded = "Pembayaran berhasil dicatat."
)

// Publisher receives console events for fan-out. *sse.Broker satisfies it.
type Publisher interface {
	Publish(event sse.Event)
	PublishCollectionChange(names ...string)
}

type options struct {
	logger     *slog.Logger
	events     Publisher
	defaultTTL time.Duration
	sessionOps []session.Option
	storeOps   []store.Option
}

// Option configures a Console.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEvents forwards state changes to p.
func WithEvents(p Publisher) Option {
	return func(o *options) {
		o.events = p
	}
}

// WithNotificationTTL sets the default notification duration.
func WithNotificationTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithSessionOptions passes opts to the session gate.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessionOps = append(o.sessionOps, opts...)
	}
}

// WithStoreOptions passes opts to the store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) {
		o.storeOps = append(o.storeOps, opts...)
	}
}

// Console owns the four core modules. Fields are exported so transports can
// reach operations the console does not wrap.
type Console struct {
	Store   *store.Store
	Notify  *notify.Scheduler
	Nav     *navigation.Orchestrator
	Session *session.Gate

	collections *Registry
	logger      *slog.Logger
	events      Publisher
}

// New seeds the store from ds and restores the session from flags.
func New(ds *models.Dataset, flags session.FlagStore, opts ...Option) (*Console, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Console{logger: o.logger, events: o.events}

	storeOps := append([]store.Option{store.WithChangeHook(c.onStoreChange)}, o.storeOps...)
	c.Store = store.New(ds, storeOps...)
	c.Notify = notify.NewScheduler(
		notify.WithDefaultDuration(o.defaultTTL),
		notify.WithListener(c.onNotification),
	)
	c.Nav = navigation.New(c.onNavigation)

	sessionOps := append([]session.Option{session.WithListener(c.onSession)}, o.sessionOps...)
	gate, err := session.New(flags, c.Store, sessionOps...)
	if err != nil {
		c.Notify.Close()
		return nil, fmt.Errorf("console: %w", err)
	}
	c.Session = gate
	c.collections = newRegistry(c.Store)

	return c, nil
}

// Close stops the notification timer.
func (c *Console) Close() {
	c.Notify.Close()
}

// Collections returns the name-keyed collection registry.
func (c *Console) Collections() *Registry {
	return c.collections
}

// Screen describes what the user currently sees.
type Screen struct {
	Authenticated bool                 `json:"authenticated"`
	Screen        session.Screen       `json:"screen"`
	Submitting    bool                 `json:"submitting"`
	LoginHint     string               `json:"loginHint,omitempty"`
	Navigation    *navigation.State    `json:"navigation,omitempty"`
	Notification  *notify.Notification `json:"notification,omitempty"`
}

// Screen returns the authenticated shell state, or the auth screen when no
// session is active.
func (c *Console) Screen() Screen {
	st := c.Session.State()
	out := Screen{Authenticated: st.Authenticated, Screen: st.Screen, Submitting: st.Submitting}
	if !st.Authenticated {
		if st.Screen == session.ScreenLogin {
			out.LoginHint = c.Session.ReferenceEmail()
		}
		return out
	}
	nav := c.Nav.State()
	out.Navigation = &nav
	if n, ok := c.Notify.Current(); ok {
		out.Notification = &n
	}
	return out
}

// ShowNotification publishes message for d, or the default when d <= 0.
func (c *Console) ShowNotification(message string, d time.Duration) (uint64, error) {
	if err := validation.Validate(message, validation.Required); err != nil {
		return 0, fmt.Errorf("console: notification message: %v: %w", err, apperr.ErrValidation)
	}
	return c.Notify.Publish(message, d), nil
}

// SubmitSuggestion records a lead from the public suggestion screen and
// confirms it with a notification.
func (c *Console) SubmitSuggestion(lead models.Lead) (models.Lead, error) {
	added, err := c.Session.SubmitSuggestion(lead)
	if err != nil {
		return models.Lead{}, err
	}
	c.Notify.Publish(MsgSuggestionReceived, 0)
	return added, nil
}

// SettlePayments validates req, runs the settlement and confirms it with a
// notification.
func (c *Console) SettlePayments(req store.Settlement) (*store.SettlementResult, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.TeamMemberID, validation.Required),
		validation.Field(&req.PaymentIDs, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("console: settlement: %v: %w", err, apperr.ErrValidation)
	}
	res, err := c.Store.SettlePayments(req)
	if err != nil {
		return nil, err
	}
	c.Notify.Publish(MsgSettlementRecorded, 0)
	c.logger.Info("payments settled",
		slog.String("team_member_id", req.TeamMemberID),
		slog.Int("count", len(req.PaymentIDs)),
		slog.Int64("amount", -res.Transaction.Amount),
	)
	return res, nil
}

func (c *Console) onStoreChange(ch store.Change) {
	metrics.RecordStoreWrite(ch.Collections...)
	if c.events != nil {
		c.events.PublishCollectionChange(ch.Collections...)
	}
}

func (c *Console) onNotification(ev notify.Event) {
	typ := sse.TypeNotificationCleared
	if ev.Kind == notify.EventShown {
		typ = sse.TypeNotificationShown
		metrics.RecordNotification()
	}
	if c.events != nil {
		c.events.Publish(sse.Event{Type: typ, Data: ev.Notification})
	}
}

func (c *Console) onNavigation(st navigation.State) {
	if c.events != nil {
		c.events.Publish(sse.Event{Type: sse.TypeNavigationChanged, Data: st})
	}
}

func (c *Console) onSession(tr session.Transition) {
	metrics.RecordSessionTransition(tr.Event, tr.Success)
	c.logger.Info("session transition",
		slog.String("event", tr.Event),
		slog.Bool("success", tr.Success),
		slog.Bool("authenticated", tr.State.Authenticated),
	)
	if c.events != nil {
		c.events.Publish(sse.Event{Type: sse.TypeSessionChanged, Data: tr.State})
	}
}
