package session

import (
	"errors"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/storage"
)

// FlagKey is the storage key of the persisted session flag.
const FlagKey = "isAuthenticated"

// FlagStore persists the authenticated flag across restarts.
type FlagStore interface {
	Load() (bool, error)
	Save(authenticated bool) error
}

// ProviderFlag keeps the flag in a storage.Provider as the string "true".
// Clearing it removes the key.
type ProviderFlag struct {
	p storage.Provider
}

// NewFlagStore wraps p.
func NewFlagStore(p storage.Provider) *ProviderFlag {
	return &ProviderFlag{p: p}
}

func (f *ProviderFlag) Load() (bool, error) {
	v, err := f.p.Get(FlagKey)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return v == "true", nil
}

func (f *ProviderFlag) Save(authenticated bool) error {
	if authenticated {
		return f.p.Set(FlagKey, "true")
	}
	return f.p.Delete(FlagKey)
}
