// Package store owns every entity collection of the console and the composite
// mutations that must touch several collections at once.
//
// Reads return deep copies, writes replace a whole collection. Composite
// operations run against a cloned state that is swapped in only when every
// step succeeded, so callers never observe a partial write.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venapictures/vena/internal/models"
)

// Collection names, used in change notifications and by the HTTP/MCP registries.
const (
	NameClients             = "clients"
	NameProjects            = "projects"
	NameTeamMembers         = "team-members"
	NameTransactions        = "transactions"
	NamePackages            = "packages"
	NameAddOns              = "add-ons"
	NameTeamProjectPayments = "team-project-payments"
	NameTeamPaymentRecords  = "team-payment-records"
	NamePockets             = "pockets"
	NameLeads               = "leads"
	NameRewardLedger        = "reward-ledger"
	NameProfile             = "profile"
)

// Collection is the read/replace capability a feature view gets for one entity type.
type Collection[T any] interface {
	// Get returns a snapshot of the current ordered sequence.
	Get() []T
	// Replace overwrites the whole sequence.
	Replace(items []T)
}

// Change describes a committed write.
type Change struct {
	Collections []string
}

// Option configures a Store.
type Option func(*Store)

// WithChangeHook registers fn to be called after every committed write.
func WithChangeHook(fn func(Change)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// WithClock overrides the time source used for defaulted dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFn = now
	}
}

// WithIDGenerator overrides how new record ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Store holds all collections in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	st       state
	onChange func(Change)
	nowFn    func() time.Time
	newID    func() string
}

// New seeds a store from ds. The dataset is copied; later changes to ds do
// not reach the store.
func New(ds *models.Dataset, opts ...Option) *Store {
	s := &Store{
		nowFn: func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	if ds != nil {
		s.st = stateFromDataset(ds)
	} else {
		s.st = stateFromDataset(&models.Dataset{})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot() models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.dataset()
}

func (s *Store) Clients() Collection[models.Client] {
	return collection[models.Client]{s: s, name: NameClients, field: func(st *state) *[]models.Client { return &st.clients }}
}

func (s *Store) Projects() Collection[models.Project] {
	return collection[models.Project]{s: s, name: NameProjects, field: func(st *state) *[]models.Project { return &st.projects }}
}

func (s *Store) TeamMembers() Collection[models.TeamMember] {
	return collection[models.TeamMember]{s: s, name: NameTeamMembers, field: func(st *state) *[]models.TeamMember { return &st.teamMembers }}
}

func (s *Store) Transactions() Collection[models.Transaction] {
	return collection[models.Transaction]{s: s, name: NameTransactions, field: func(st *state) *[]models.Transaction { return &st.transactions }}
}

func (s *Store) Packages() Collection[models.Package] {
	return collection[models.Package]{s: s, name: NamePackages, field: func(st *state) *[]models.Package { return &st.packages }}
}

func (s *Store) AddOns() Collection[models.AddOn] {
	return collection[models.AddOn]{s: s, name: NameAddOns, field: func(st *state) *[]models.AddOn { return &st.addOns }}
}

func (s *Store) TeamProjectPayments() Collection[models.TeamProjectPayment] {
	return collection[models.TeamProjectPayment]{s: s, name: NameTeamProjectPayments, field: func(st *state) *[]models.TeamProjectPayment { return &st.teamProjectPayments }}
}

func (s *Store) TeamPaymentRecords() Collection[models.TeamPaymentRecord] {
	return collection[models.TeamPaymentRecord]{s: s, name: NameTeamPaymentRecords, field: func(st *state) *[]models.TeamPaymentRecord { return &st.teamPaymentRecords }}
}

func (s *Store) Pockets() Collection[models.FinancialPocket] {
	return collection[models.FinancialPocket]{s: s, name: NamePockets, field: func(st *state) *[]models.FinancialPocket { return &st.pockets }}
}

func (s *Store) Leads() Collection[models.Lead] {
	return collection[models.Lead]{s: s, name: NameLeads, field: func(st *state) *[]models.Lead { return &st.leads }}
}

func (s *Store) RewardLedger() Collection[models.RewardLedgerEntry] {
	return collection[models.RewardLedgerEntry]{s: s, name: NameRewardLedger, field: func(st *state) *[]models.RewardLedgerEntry { return &st.rewardLedger }}
}

// Profile returns a copy of the company profile.
func (s *Store) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.profile.Clone()
}

// SetProfile replaces the company profile.
func (s *Store) SetProfile(p models.Profile) {
	s.mu.Lock()
	s.st.profile = p.Clone()
	s.mu.Unlock()
	s.emit(NameProfile)
}

// Find resolves a weak reference by id.
func Find[T models.Record[T]](c Collection[T], id string) (T, bool) {
	for _, item := range c.Get() {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// update runs fn against a clone of the state and commits it only when fn
// succeeds.
func (s *Store) update(fn func(st *state) ([]string, error)) error {
	s.mu.Lock()
	next := s.st.clone()
	touched, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	s.mu.Unlock()
	s.emit(touched...)
	return nil
}

func (s *Store) emit(names ...string) {
	if s.onChange == nil || len(names) == 0 {
		return
	}
	s.onChange(Change{Collections: names})
}

type collection[T models.Record[T]] struct {
	s     *Store
	name  string
	field func(st *state) *[]T
}

func (c collection[T]) Get() []T {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return cloneAll(*c.field(&c.s.st))
}

func (c collection[T]) Replace(items []T) {
	c.s.mu.Lock()
	*c.field(&c.s.st) = cloneAll(items)
	c.s.mu.Unlock()
	c.s.emit(c.name)
}

func cloneAll[T models.Record[T]](in []T) []T {
	out := make([]T, len(in))
	for i, item := range in {
		out[i] = item.Clone()
	}
	return out
}
