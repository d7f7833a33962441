// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package consent defines the boundary to the externally-owned consent
// management system. Analytics components only ever need the answer to one
// question - "has the user granted optional consent?" - and a way to observe
// transitions of that answer.
package consent

import "sync"

// Source is the consent collaborator contract. Implementations must be safe
// for concurrent use.
type Source interface {
	// HasOptionalConsent reports whether optional (analytics) consent is
	// currently granted.
	HasOptionalConsent() bool

	// Subscribe registers fn to be invoked on every consent transition.
	// fn is only called on true edges (granted changed value), never on
	// redundant writes. The returned cancel function removes the
	// subscription; it is safe to call more than once.
	Subscribe(fn func(granted bool)) (cancel func())
}

// Store is a small threadsafe Source implementation. The real consent system
// lives outside this subsystem; Store is the in-process stand-in used by the
// relay server and by tests.
type Store struct {
	mu      sync.Mutex
	granted bool
	subs    map[int]func(bool)
	nextID  int
}

// NewStore returns a Store with the given initial consent state.
func NewStore(granted bool) *Store {
	return &Store{
		granted: granted,
		subs:    make(map[int]func(bool)),
	}
}

// HasOptionalConsent reports the current consent state.
func (s *Store) HasOptionalConsent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

// SetOptionalConsent updates the consent state. Subscribers are notified
// only when the value actually changes.
func (s *Store) SetOptionalConsent(granted bool) {
	s.mu.Lock()
	if s.granted == granted {
		s.mu.Unlock()
		return
	}
	s.granted = granted
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so subscribers can read back state.
	for _, fn := range fns {
		fn(granted)
	}
}

// Subscribe registers fn for consent transitions.
func (s *Store) Subscribe(fn func(granted bool)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
