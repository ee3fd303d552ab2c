// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"sort"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
)

// recalculateServer re-derives which of one server's channels the
// viewer can see after a permission-relevant change. Cached channels
// that lost visibility are dropped and announced as deletions; server
// channels the viewer newly gained access to are fetched, cached, and
// announced as creations. The returned events are synthetic — they
// exist only for this connection — and the caller delivers them
// bundled with whatever event triggered the recalculation.
//
// Step two is fail-soft: if fetching unknown channels fails, the
// removals from step one stand and the gained channels surface on the
// next permission-relevant event instead.
func (s *State) recalculateServer(ctx context.Context, id ref.ServerID) []events.Event {
	server, ok := s.servers[id]
	if !ok {
		return nil
	}

	var out []events.Event
	accounted := make(map[ref.ChannelID]struct{})
	for _, channelID := range s.sortedChannelIDsOf(id) {
		accounted[channelID] = struct{}{}
		channel := s.channels[channelID]
		if s.canViewChannel(&channel) {
			s.subscribe(channelID.Topic())
			continue
		}
		s.unsubscribe(channelID.Topic())
		delete(s.channels, channelID)
		out = append(out, events.ChannelDelete{ID: channelID})
	}

	var unknown []ref.ChannelID
	for _, channelID := range server.Channels {
		if _, ok := accounted[channelID]; !ok {
			unknown = append(unknown, channelID)
		}
	}
	if len(unknown) == 0 {
		return out
	}
	fetched, err := s.db.FetchChannels(ctx, unknown)
	if err != nil {
		s.log.Warn("recalculation fetch failed", "server", id, "error", err)
		return out
	}
	for _, channel := range fetched {
		if !s.canViewChannel(&channel) {
			continue
		}
		s.channels[channel.ID] = channel
		s.subscribe(channel.ID.Topic())
		out = append(out, events.ChannelCreate{Channel: channel})
	}
	return out
}

// sortedChannelIDsOf returns the cached channel IDs belonging to one
// server in stable order, so synthetic event order is deterministic.
func (s *State) sortedChannelIDsOf(server ref.ServerID) []ref.ChannelID {
	var ids []ref.ChannelID
	for id, channel := range s.channels {
		if channel.Server == server {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
