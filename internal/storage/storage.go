// Package storage persists whole progress documents under a single key.
// Backends are interchangeable; the progress store never branches on which
// one it was given.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a key/value document store.
type Backend interface {
	// Load returns the document stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Nop never persists anything. It stands in for storage during
// server-side rendering where no user profile exists.
type Nop struct{}

func (Nop) Load(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (Nop) Save(context.Context, string, []byte) error   { return nil }
func (Nop) Delete(context.Context, string) error         { return nil }
func (Nop) Ping(context.Context) error                   { return nil }
func (Nop) Close() error                                 { return nil }
