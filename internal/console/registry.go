package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/checksum"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/store"
)

// Registry addresses store collections by name for the transports.
type Registry struct {
	mu      sync.Mutex // serializes checked replaces
	entries map[string]entry
}

type entry struct {
	list    func() any
	find    func(id string) (any, bool)
	replace func(raw []byte) error
}

func newRegistry(s *store.Store) *Registry {
	return &Registry{entries: map[string]entry{
		store.NameClients:             register(s.Clients()),
		store.NameProjects:            register(s.Projects()),
		store.NameTeamMembers:         register(s.TeamMembers()),
		store.NameTransactions:        register(s.Transactions()),
		store.NamePackages:            register(s.Packages()),
		store.NameAddOns:              register(s.AddOns()),
		store.NameTeamProjectPayments: register(s.TeamProjectPayments()),
		store.NameTeamPaymentRecords:  register(s.TeamPaymentRecords()),
		store.NamePockets:             register(s.Pockets()),
		store.NameLeads:               register(s.Leads()),
		store.NameRewardLedger:        register(s.RewardLedger()),
		store.NameProfile: {
			list: func() any { return s.Profile() },
			replace: func(raw []byte) error {
				var p models.Profile
				if err := decodeStrict(raw, &p); err != nil {
					return err
				}
				s.SetProfile(p)
				return nil
			},
		},
	}}
}

func register[T models.Record[T]](c store.Collection[T]) entry {
	return entry{
		list: func() any { return c.Get() },
		find: func(id string) (any, bool) {
			item, ok := store.Find(c, id)
			return item, ok
		},
		replace: func(raw []byte) error {
			var items []T
			if err := decodeStrict(raw, &items); err != nil {
				return err
			}
			if err := checkIDs(items); err != nil {
				return err
			}
			c.Replace(items)
			return nil
		},
	}
}

// Names returns every registered collection name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns a snapshot of the named collection (or the profile).
func (r *Registry) List(name string) (any, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.list(), nil
}

// Get returns one record by id.
func (r *Registry) Get(name, id string) (any, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.find == nil {
		return nil, fmt.Errorf("console: %s has no records: %w", name, apperr.ErrNotFound)
	}
	v, ok := e.find(id)
	if !ok {
		return nil, fmt.Errorf("console: %s/%s: %w", name, id, apperr.ErrNotFound)
	}
	return v, nil
}

// ReplaceJSON decodes raw as the full new content of the named collection
// and stores it. Unknown fields, empty ids and duplicate ids are rejected.
func (r *Registry) ReplaceJSON(name string, raw []byte) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	return e.replace(raw)
}

// Checksum returns the ETag of the named collection's current content.
func (r *Registry) Checksum(name string) (string, error) {
	v, err := r.List(name)
	if err != nil {
		return "", err
	}
	return checksum.SumJSON(v)
}

// ReplaceJSONIfMatch replaces the collection only when its current checksum
// equals ifMatch. An empty ifMatch skips the check. It returns the new
// checksum.
func (r *Registry) ReplaceJSONIfMatch(name string, raw []byte, ifMatch string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ifMatch != "" {
		current, err := r.Checksum(name)
		if err != nil {
			return "", err
		}
		if current != ifMatch {
			return "", fmt.Errorf("console: %s checksum mismatch: %w", name, apperr.ErrConflict)
		}
	}
	if err := r.ReplaceJSON(name, raw); err != nil {
		return "", err
	}
	return r.Checksum(name)
}

func (r *Registry) lookup(name string) (entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return entry{}, fmt.Errorf("console: unknown collection %q: %w", name, apperr.ErrNotFound)
	}
	return e, nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("console: decode: %v: %w", err, apperr.ErrValidation)
	}
	return nil
}

func checkIDs[T models.Record[T]](items []T) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		id := item.RecordID()
		if id == "" {
			return fmt.Errorf("console: item %d has no id: %w", i, apperr.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("console: duplicate id %q: %w", id, apperr.ErrValidation)
		}
		seen[id] = struct{}{}
	}
	return nil
}
