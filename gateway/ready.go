// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"sort"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// BuildReady populates the cache from empty and returns the complete
// initial payload for the client. Any database failure aborts the
// whole build: a half-built view is worse than a failed connection,
// since the client would silently miss entities forever. Voice-store
// failures are the exception and only omit that one channel's voice
// state.
//
// Call exactly once, before the first Apply.
func (s *State) BuildReady(ctx context.Context) (events.Ready, error) {
	candidates := make(map[ref.UserID]struct{})
	for _, relation := range s.viewer.Relations {
		candidates[relation.ID] = struct{}{}
	}

	memberships, err := s.db.FetchAllMemberships(ctx, s.viewer.ID)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching memberships: %w", err)
	}
	serverIDs := make([]ref.ServerID, 0, len(memberships))
	for _, member := range memberships {
		s.members[member.ID.Server] = member
		serverIDs = append(serverIDs, member.ID.Server)
	}

	servers, err := s.db.FetchServers(ctx, serverIDs)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching servers: %w", err)
	}
	var channelIDs []ref.ChannelID
	for _, server := range servers {
		s.servers[server.ID] = server
		channelIDs = append(channelIDs, server.Channels...)
	}

	serverChannels, err := s.db.FetchChannels(ctx, channelIDs)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching server channels: %w", err)
	}
	direct, err := s.db.FindDirectMessages(ctx, s.viewer.ID)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching direct messages: %w", err)
	}
	for _, channel := range append(serverChannels, direct...) {
		if !s.canViewChannel(&channel) {
			continue
		}
		s.channels[channel.ID] = channel
		for _, recipient := range channel.Recipients {
			if recipient != s.viewer.ID {
				candidates[recipient] = struct{}{}
			}
		}
	}

	userIDs := make([]ref.UserID, 0, len(candidates))
	for id := range candidates {
		userIDs = append(userIDs, id)
	}
	online := make(map[ref.UserID]struct{})
	for _, id := range s.pres.FilterOnline(userIDs) {
		online[id] = struct{}{}
	}
	fetched, err := s.db.FetchUsers(ctx, userIDs)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching users: %w", err)
	}
	for _, user := range fetched {
		_, isOnline := online[user.ID]
		s.users[user.ID] = user.AsSeenBy(&s.viewer, isOnline)
	}
	s.users[s.viewer.ID] = s.viewer.AsSelf()

	emojis, err := s.db.FetchEmojiByParents(ctx, serverIDs)
	if err != nil {
		return events.Ready{}, fmt.Errorf("fetching emoji: %w", err)
	}

	s.resetSubscriptions()

	var voiceStates []model.ChannelVoiceState
	for _, channel := range s.sortedChannels() {
		if !channel.VoiceCapable() {
			continue
		}
		state, err := s.fetchVoiceState(ctx, channel.ID)
		if err != nil {
			s.log.Warn("voice state unavailable", "channel", channel.ID, "error", err)
			continue
		}
		if state != nil {
			voiceStates = append(voiceStates, *state)
		}
	}

	return events.Ready{
		Users:       s.sortedUsers(),
		Servers:     s.sortedServers(),
		Channels:    s.sortedChannels(),
		Members:     memberships,
		Emojis:      emojis,
		VoiceStates: voiceStates,
	}, nil
}

// Cached maps iterate in arbitrary order; payloads sort by ID so a
// client reconnecting sees a stable shape.

func (s *State) sortedUsers() []model.User {
	out := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *State) sortedServers() []model.Server {
	out := make([]model.Server, 0, len(s.servers))
	for _, server := range s.servers {
		out = append(out, server)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *State) sortedChannels() []model.Channel {
	out := make([]model.Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		out = append(out, channel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
