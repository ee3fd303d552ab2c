// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package voice tracks who is connected to each voice-capable channel
// and what each participant's media state is. Membership and state are
// recorded separately, mirroring the split between the media server's
// room roster and the stored per-user state: the two can drift apart
// when a participant drops without a clean leave, and the gateway
// repairs that drift when it assembles a channel snapshot.
package voice

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// ErrNotFound marks a missing voice state for a channel member.
var ErrNotFound = errors.New("voice: state not found")

// Store is the gateway's view of voice sessions.
type Store interface {
	// ListChannelMembers returns the users currently counted as
	// connected to the channel, in unspecified order. An empty slice
	// means no active session.
	ListChannelMembers(ctx context.Context, channel ref.ChannelID) ([]ref.UserID, error)

	// GetVoiceState returns the stored media state for one member, or
	// ErrNotFound when membership exists without state.
	GetVoiceState(ctx context.Context, channel ref.ChannelID, user ref.UserID) (model.UserVoiceState, error)

	// RemoveChannelMember drops a user from the channel roster and
	// discards any stored state. Removing an absent user is a no-op.
	RemoveChannelMember(ctx context.Context, channel ref.ChannelID, user ref.UserID) error

	// Join adds the user to the channel roster and records their
	// initial state.
	Join(ctx context.Context, channel ref.ChannelID, state model.UserVoiceState) error

	// SetVoiceState replaces the stored state for a user already in
	// the channel. It does not touch the roster.
	SetVoiceState(ctx context.Context, channel ref.ChannelID, state model.UserVoiceState) error
}

// MemoryStore is an in-process Store. Roster and state are independent
// maps, so tests and drift-repair paths can put them out of sync
// deliberately.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[ref.ChannelID]map[ref.UserID]struct{}
	states  map[ref.ChannelID]map[ref.UserID]model.UserVoiceState
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[ref.ChannelID]map[ref.UserID]struct{}),
		states:  make(map[ref.ChannelID]map[ref.UserID]model.UserVoiceState),
	}
}

func (s *MemoryStore) ListChannelMembers(ctx context.Context, channel ref.ChannelID) ([]ref.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := s.members[channel]
	if len(roster) == 0 {
		return nil, nil
	}
	users := make([]ref.UserID, 0, len(roster))
	for user := range roster {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })
	return users, nil
}

func (s *MemoryStore) GetVoiceState(ctx context.Context, channel ref.ChannelID, user ref.UserID) (model.UserVoiceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[channel][user]
	if !ok {
		return model.UserVoiceState{}, ErrNotFound
	}
	return state, nil
}

func (s *MemoryStore) RemoveChannelMember(ctx context.Context, channel ref.ChannelID, user ref.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roster, ok := s.members[channel]; ok {
		delete(roster, user)
		if len(roster) == 0 {
			delete(s.members, channel)
		}
	}
	if states, ok := s.states[channel]; ok {
		delete(states, user)
		if len(states) == 0 {
			delete(s.states, channel)
		}
	}
	return nil
}

func (s *MemoryStore) Join(ctx context.Context, channel ref.ChannelID, state model.UserVoiceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMember(channel, state.ID)
	s.setState(channel, state)
	return nil
}

func (s *MemoryStore) SetVoiceState(ctx context.Context, channel ref.ChannelID, state model.UserVoiceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(channel, state)
	return nil
}

// AddMemberWithoutState puts a user on the roster with no stored
// state, producing the dangling-membership drift the gateway repairs.
// Test helper.
func (s *MemoryStore) AddMemberWithoutState(channel ref.ChannelID, user ref.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMember(channel, user)
}

func (s *MemoryStore) addMember(channel ref.ChannelID, user ref.UserID) {
	roster, ok := s.members[channel]
	if !ok {
		roster = make(map[ref.UserID]struct{})
		s.members[channel] = roster
	}
	roster[user] = struct{}{}
}

func (s *MemoryStore) setState(channel ref.ChannelID, state model.UserVoiceState) {
	states, ok := s.states[channel]
	if !ok {
		states = make(map[ref.UserID]model.UserVoiceState)
		s.states[channel] = states
	}
	states[state.ID] = state
}
