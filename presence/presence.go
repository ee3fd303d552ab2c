// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package presence tracks which users currently hold at least one live
// gateway session. A user may be connected from several devices, so
// the registry reference-counts sessions and only reports a user as
// offline once the last one disconnects.
package presence

import (
	"sync"

	"github.com/ember-chat/ember/lib/ref"
)

// Registry is the in-process session counter. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ref.UserID]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[ref.UserID]int)}
}

// Connect records one new session for the user and reports whether
// this was their first, i.e. the user just came online.
func (r *Registry) Connect(user ref.UserID) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[user]++
	return r.sessions[user] == 1
}

// Disconnect records the end of one session and reports whether it was
// the user's last, i.e. the user just went offline. Disconnecting a
// user with no sessions is a no-op.
func (r *Registry) Disconnect(user ref.UserID) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.sessions[user]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(r.sessions, user)
		return true
	}
	r.sessions[user] = n - 1
	return false
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(user ref.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[user] > 0
}

// FilterOnline returns the subset of users with a live session,
// preserving input order.
func (r *Registry) FilterOnline(users []ref.UserID) []ref.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online := make([]ref.UserID, 0, len(users))
	for _, user := range users {
		if r.sessions[user] > 0 {
			online = append(online, user)
		}
	}
	return online
}
