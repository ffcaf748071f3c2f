// Package store holds named rigid transforms in memory. It is the source of raw samples and the
// sink of filtered outputs for the driver.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/smoother/spatialmath"
)

// ErrNotFound is returned when no transform has been written under a name.
var ErrNotFound = errors.New("transform not found")

// NewNotFoundError wraps ErrNotFound with the missing name.
func NewNotFoundError(name string) error {
	return errors.Wrapf(ErrNotFound, "%q", name)
}

// Store is a concurrency safe map of names to the last transform written under that name.
type Store struct {
	mu         sync.RWMutex
	transforms map[string]spatialmath.RigidTransform
}

// New returns an empty store.
func New() *Store {
	return &Store{transforms: map[string]spatialmath.RigidTransform{}}
}

// Transform returns the last transform written under name.
func (s *Store) Transform(ctx context.Context, name string) (spatialmath.RigidTransform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tf, ok := s.transforms[name]
	if !ok {
		return spatialmath.RigidTransform{}, NewNotFoundError(name)
	}
	return tf, nil
}

// SetTransform replaces the transform stored under name.
func (s *Store) SetTransform(ctx context.Context, name string, tf spatialmath.RigidTransform) error {
	if name == "" {
		return errors.New("transform name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transforms[name] = tf
	return nil
}

// Remove deletes the transform stored under name, if any.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transforms, name)
}

// Names returns the stored names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := lo.Keys(s.transforms)
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}
