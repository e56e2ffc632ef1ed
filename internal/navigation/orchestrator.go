// Package navigation tracks the active feature view and the one-shot action
// carried into it.
package navigation

import (
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/models"
)

// Pending is a navigation action waiting to be consumed by its target view.
type Pending struct {
	ID     uint64                  `json:"id"`
	Action models.NavigationAction `json:"action"`
}

// State is a snapshot of the orchestrator.
type State struct {
	ActiveView  models.ViewType `json:"activeView"`
	Pending     *Pending        `json:"pending,omitempty"`
	SidebarOpen bool            `json:"sidebarOpen"`
}

// Listener is called after every state change, outside the lock.
type Listener func(State)

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	mu       sync.Mutex
	active   models.ViewType
	pending  *Pending
	seq      uint64
	sidebar  bool
	listener Listener
}

// New returns an orchestrator on the dashboard with no pending action.
func New(listener Listener) *Orchestrator {
	return &Orchestrator{active: models.ViewDashboard, listener: listener}
}

// Navigate switches to view and replaces the pending action with action.
// A nil action discards whatever was pending. The sidebar overlay is closed.
// When action has no target view it targets view.
func (o *Orchestrator) Navigate(view models.ViewType, action *models.NavigationAction) (State, error) {
	if err := validateView(view); err != nil {
		return State{}, err
	}
	var next *Pending
	if action != nil {
		a := *action
		if a.TargetView == "" {
			a.TargetView = view
		}
		if err := validateAction(a); err != nil {
			return State{}, err
		}
		next = &Pending{Action: a}
	}

	o.mu.Lock()
	o.active = view
	if next != nil {
		o.seq++
		next.ID = o.seq
	}
	o.pending = next
	o.sidebar = false
	st := o.snapshot()
	o.mu.Unlock()

	o.notify(st)
	return st, nil
}

// Pending returns the pending action if it targets view.
func (o *Orchestrator) Pending(view models.ViewType) (Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil || o.pending.Action.TargetView != view {
		return Pending{}, false
	}
	return *o.pending, true
}

// Acknowledge clears the pending action with the given id. Acknowledging an
// action that was already replaced or cleared is a no-op and returns false.
func (o *Orchestrator) Acknowledge(id uint64) bool {
	o.mu.Lock()
	if o.pending == nil || o.pending.ID != id {
		o.mu.Unlock()
		return false
	}
	o.pending = nil
	st := o.snapshot()
	o.mu.Unlock()

	o.notify(st)
	return true
}

// Consume returns the pending action for view and acknowledges it.
func (o *Orchestrator) Consume(view models.ViewType) (Pending, bool) {
	p, ok := o.Pending(view)
	if !ok || !o.Acknowledge(p.ID) {
		return Pending{}, false
	}
	return p, true
}

// SetSidebarOpen opens or closes the navigation overlay.
func (o *Orchestrator) SetSidebarOpen(open bool) State {
	o.mu.Lock()
	o.sidebar = open
	st := o.snapshot()
	o.mu.Unlock()

	o.notify(st)
	return st
}

// ToggleSidebar flips the navigation overlay.
func (o *Orchestrator) ToggleSidebar() State {
	o.mu.Lock()
	o.sidebar = !o.sidebar
	st := o.snapshot()
	o.mu.Unlock()

	o.notify(st)
	return st
}

// State returns a snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

func (o *Orchestrator) snapshot() State {
	st := State{ActiveView: o.active, SidebarOpen: o.sidebar}
	if o.pending != nil {
		p := *o.pending
		st.Pending = &p
	}
	return st
}

func (o *Orchestrator) notify(st State) {
	if o.listener != nil {
		o.listener(st)
	}
}

func validateView(view models.ViewType) error {
	if !view.Valid() {
		return fmt.Errorf("navigation: unknown view %q: %w", view, apperr.ErrValidation)
	}
	return nil
}

func validateAction(a models.NavigationAction) error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.TargetView, validation.By(func(any) error { return validateView(a.TargetView) })),
		validation.Field(&a.Tab, validation.In(models.TabInfo, models.TabProject, models.TabPayment, models.TabInvoice)),
	)
	if err != nil {
		return fmt.Errorf("navigation: invalid action: %v: %w", err, apperr.ErrValidation)
	}
	return nil
}
