// Package session decides which screen tree is visible. It keeps the
// authenticated/unauthenticated state, persists it through a FlagStore so a
// restart does not force a new login, and simulates the latency of the
// credential check.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/models"
)

// Screen is the visible top-level screen.
type Screen string

const (
	ScreenLogin      Screen = "login"
	ScreenSignup     Screen = "signup"
	ScreenSuggestion Screen = "suggestion"
	// ScreenApp is the authenticated shell.
	ScreenApp Screen = "app"
)

// Defaults for the reference credential check.
const (
	DefaultEmail      = "admin@venapictures.com"
	DefaultPassword   = "password123"
	DefaultDelay      = time.Second
	MinPasswordLength = 8
)

// State is a snapshot of the gate.
type State struct {
	Authenticated bool   `json:"authenticated"`
	Screen        Screen `json:"screen"`
	Submitting    bool   `json:"submitting"`
}

// Transition is reported to the listener after every attempt.
type Transition struct {
	Event   string
	Success bool
	State   State
}

// LeadAdder receives leads submitted from the suggestion screen.
type LeadAdder interface {
	AddLead(lead models.Lead) models.Lead
}

// SignupForm is the payload of the signup screen.
type SignupForm struct {
	FullName        string `json:"fullName"`
	CompanyName     string `json:"companyName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Option configures a Gate.
type Option func(*Gate)

// WithCredentials sets the reference email/password pair.
func WithCredentials(email, password string) Option {
	return func(g *Gate) {
		g.email = email
		g.password = password
	}
}

// WithDelay sets the simulated latency of login and signup.
func WithDelay(d time.Duration) Option {
	return func(g *Gate) {
		g.delay = d
	}
}

// WithListener registers fn for transition reports.
func WithListener(fn func(Transition)) Option {
	return func(g *Gate) {
		g.listener = fn
	}
}

// Gate is safe for concurrent use.
type Gate struct {
	mu            sync.Mutex
	authenticated bool
	screen        Screen
	submitting    atomic.Bool

	flags    FlagStore
	leads    LeadAdder
	email    string
	password string
	delay    time.Duration
	listener func(Transition)
}

// New reads the persisted flag and starts authenticated when it is set,
// otherwise on the login screen.
func New(flags FlagStore, leads LeadAdder, opts ...Option) (*Gate, error) {
	g := &Gate{
		screen:   ScreenLogin,
		flags:    flags,
		leads:    leads,
		email:    DefaultEmail,
		password: DefaultPassword,
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	ok, err := flags.Load()
	if err != nil {
		return nil, fmt.Errorf("session: load flag: %w", err)
	}
	g.authenticated = ok
	return g, nil
}

// State returns a snapshot.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// ReferenceEmail is the email the login screen is prefilled with.
func (g *Gate) ReferenceEmail() string {
	return g.email
}

// Authenticated reports whether the authenticated shell is visible.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// Login checks the credentials after the simulated delay. A wrong pair
// returns ErrInvalidCredentials and changes nothing. Only one login or
// signup may be pending at a time, and only from the login screen.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	if !g.submitting.CompareAndSwap(false, true) {
		return apperr.ErrSubmitInProgress
	}
	defer g.submitting.Store(false)

	if err := g.expectScreen(ScreenLogin); err != nil {
		return err
	}

	if err := g.wait(ctx); err != nil {
		return err
	}

	if !g.matches(email, password) {
		g.report("login", false)
		return ErrInvalidCredentials
	}
	return g.authenticate("login")
}

// Signup validates the form synchronously, then authenticates after the
// simulated delay. It is only accepted from the signup screen.
func (g *Gate) Signup(ctx context.Context, form SignupForm) error {
	if err := validateSignup(form); err != nil {
		g.report("signup", false)
		return err
	}
	if !g.submitting.CompareAndSwap(false, true) {
		return apperr.ErrSubmitInProgress
	}
	defer g.submitting.Store(false)

	if err := g.expectScreen(ScreenSignup); err != nil {
		return err
	}

	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.authenticate("signup")
}

// Logout clears the persisted flag and returns to the login screen.
func (g *Gate) Logout() error {
	err := g.flags.Save(false)

	g.mu.Lock()
	g.authenticated = false
	g.screen = ScreenLogin
	g.mu.Unlock()

	g.report("logout", err == nil)
	if err != nil {
		return fmt.Errorf("session: clear flag: %w", err)
	}
	return nil
}

// Show switches between the unauthenticated screens.
func (g *Gate) Show(screen Screen) error {
	switch screen {
	case ScreenLogin, ScreenSignup, ScreenSuggestion:
	default:
		return fmt.Errorf("session: unknown screen %q: %w", screen, apperr.ErrValidation)
	}

	// The pending submit owns the screen until it resolves.
	if g.submitting.Load() {
		return apperr.ErrSubmitInProgress
	}

	g.mu.Lock()
	if g.authenticated {
		g.mu.Unlock()
		return fmt.Errorf("session: already authenticated: %w", apperr.ErrConflict)
	}
	g.screen = screen
	g.mu.Unlock()

	g.report("show", true)
	return nil
}

// SubmitSuggestion adds a lead from the public suggestion screen and
// returns to login. It never authenticates.
func (g *Gate) SubmitSuggestion(lead models.Lead) (models.Lead, error) {
	if err := validation.ValidateStruct(&lead,
		validation.Field(&lead.Name, validation.Required),
		validation.Field(&lead.ContactChannel, validation.Required),
	); err != nil {
		return models.Lead{}, &FormError{Message: err.Error()}
	}

	g.mu.Lock()
	if g.authenticated || g.screen != ScreenSuggestion {
		g.mu.Unlock()
		return models.Lead{}, fmt.Errorf("session: suggestion screen not open: %w", apperr.ErrConflict)
	}
	g.mu.Unlock()

	added := g.leads.AddLead(lead)

	g.mu.Lock()
	g.screen = ScreenLogin
	g.mu.Unlock()

	g.report("suggestion", true)
	return added, nil
}

// Resync re-reads the persisted flag, picking up changes made outside this
// process.
func (g *Gate) Resync() error {
	ok, err := g.flags.Load()
	if err != nil {
		return fmt.Errorf("session: load flag: %w", err)
	}
	g.mu.Lock()
	changed := g.authenticated != ok
	g.authenticated = ok
	if !ok {
		g.screen = ScreenLogin
	}
	g.mu.Unlock()

	if changed {
		g.report("resync", true)
	}
	return nil
}

// expectScreen fails with ErrConflict unless the gate is unauthenticated and
// showing screen.
func (g *Gate) expectScreen(screen Screen) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authenticated {
		return fmt.Errorf("session: already authenticated: %w", apperr.ErrConflict)
	}
	if g.screen != screen {
		return fmt.Errorf("session: %s screen not open: %w", screen, apperr.ErrConflict)
	}
	return nil
}

func (g *Gate) authenticate(event string) error {
	if err := g.flags.Save(true); err != nil {
		g.report(event, false)
		return fmt.Errorf("session: persist flag: %w", err)
	}
	g.mu.Lock()
	g.authenticated = true
	g.screen = ScreenLogin
	g.mu.Unlock()

	g.report(event, true)
	return nil
}

// wait blocks for the simulated delay. A cancelled ctx returns early and
// leaves the state untouched.
func (g *Gate) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (g *Gate) matches(email, password string) bool {
	e := subtle.ConstantTimeCompare([]byte(email), []byte(g.email))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(g.password))
	return e&p == 1
}

func (g *Gate) snapshot() State {
	st := State{Authenticated: g.authenticated, Screen: g.screen, Submitting: g.submitting.Load()}
	if g.authenticated {
		st.Screen = ScreenApp
	}
	return st
}

func (g *Gate) report(event string, success bool) {
	if g.listener == nil {
		return
	}
	g.listener(Transition{Event: event, Success: success, State: g.State()})
}

func validateSignup(form SignupForm) error {
	if form.Password != form.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := validation.Validate(form.Password, validation.Required, validation.Length(MinPasswordLength, 0)); err != nil {
		return ErrPasswordTooShort
	}
	return nil
}
