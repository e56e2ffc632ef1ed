// Package storage is the durable key-value store behind the session flag,
// the server-side counterpart of browser local storage.
package storage

import (
	"fmt"
	"regexp"

	"github.com/venapictures/vena/internal/apperr"
)

// Provider is the interface for durable key-value operations.
type Provider interface {
	// Get returns the value stored under key, or an error wrapping
	// apperr.ErrNotFound when there is none.
	Get(key string) (string, error)
	// Set durably stores value under key.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases the backend.
	Close() error
}

// Backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validKey(key string) error {
	if !keyRe.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("storage: invalid key %q: %w", key, apperr.ErrValidation)
	}
	return nil
}

// Open opens the provider for backend rooted at path.
func Open(backend, path string) (Provider, error) {
	switch backend {
	case BackendFS:
		return NewFS(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
