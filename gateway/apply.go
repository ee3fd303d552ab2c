// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"slices"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// Apply feeds one event from the global stream into the connection's
// view. It mutates the cache and subscription set, then returns the
// event to forward to the client and whether to forward at all. The
// returned event may differ from the input: updates are rewritten to
// creations or deletions when the viewer's visibility flips, duplicate
// fanned-out user updates are suppressed, and events that trigger a
// server recalculation come back bundled with the synthetic events the
// recalculation produced.
//
// Apply never fails the connection. Fetch failures for individual
// entities leave the cache temporarily incomplete and are logged; a
// later event repairs the gap.
func (s *State) Apply(ctx context.Context, event events.Event) (events.Event, bool) {
	switch ev := event.(type) {
	case events.ChannelCreate:
		s.channels[ev.Channel.ID] = ev.Channel
		s.subscribe(ev.Channel.ID.Topic())
		for _, recipient := range ev.Channel.Recipients {
			s.subscribe(recipient.Topic())
		}
		return ev, true

	case events.ChannelUpdate:
		return s.applyChannelUpdate(ctx, ev)

	case events.ChannelDelete:
		s.unsubscribe(ev.ID.Topic())
		channel, ok := s.channels[ev.ID]
		delete(s.channels, ev.ID)
		if ok {
			s.pruneRecipientSubscriptions(channel)
		}
		return ev, true

	case events.ChannelGroupJoin:
		if channel, ok := s.channels[ev.ID]; ok && !channel.HasRecipient(ev.User) {
			channel.Recipients = append(slices.Clone(channel.Recipients), ev.User)
			s.channels[ev.ID] = channel
		}
		s.subscribe(ev.User.Topic())
		return ev, true

	case events.ChannelGroupLeave:
		if ev.User == s.viewer.ID {
			s.unsubscribe(ev.ID.Topic())
			channel, ok := s.channels[ev.ID]
			delete(s.channels, ev.ID)
			if ok {
				s.pruneRecipientSubscriptions(channel)
			}
			return ev, true
		}
		if channel, ok := s.channels[ev.ID]; ok {
			channel.Recipients = slices.DeleteFunc(slices.Clone(channel.Recipients),
				func(id ref.UserID) bool { return id == ev.User })
			s.channels[ev.ID] = channel
		}
		if !s.canSubscribeToUser(ev.User) {
			s.unsubscribe(ev.User.Topic())
		}
		return ev, true

	case events.ServerCreate:
		s.subscribe(ev.ID.Topic())
		s.servers[ev.ID] = ev.Server
		if _, ok := s.members[ev.ID]; !ok {
			s.members[ev.ID] = model.Member{ID: model.MemberKey{Server: ev.ID, User: s.viewer.ID}}
		}
		for _, channel := range ev.Channels {
			s.channels[channel.ID] = channel
		}
		return bundle(s.recalculateServer(ctx, ev.ID), ev), true

	case events.ServerUpdate:
		server, ok := s.servers[ev.ID]
		if !ok {
			return ev, true
		}
		for _, field := range ev.Clear {
			server.Remove(field)
		}
		server.Apply(ev.Data)
		s.servers[ev.ID] = server
		if ev.Data.DefaultPermissions != nil {
			return bundle(s.recalculateServer(ctx, ev.ID), ev), true
		}
		return ev, true

	case events.ServerDelete:
		s.dropServer(ev.ID)
		return ev, true

	case events.ServerMemberLeave:
		if ev.User == s.viewer.ID {
			s.dropServer(ev.ID)
		}
		return ev, true

	case events.ServerMemberUpdate:
		return s.applyMemberUpdate(ctx, ev)

	case events.ServerRoleUpdate:
		return s.applyRoleUpdate(ctx, ev)

	case events.ServerRoleDelete:
		return s.applyRoleDelete(ctx, ev)

	case events.UserUpdate:
		return s.applyUserUpdate(ev)

	case events.UserRelationship:
		s.setViewerRelation(ev.ID, ev.Status)
		s.users[ev.ID] = ev.User
		if s.canSubscribeToUser(ev.ID) {
			s.subscribe(ev.ID.Topic())
		} else {
			s.unsubscribe(ev.ID.Topic())
		}
		return ev, true

	default:
		// Messages, typing indicators, acks, and member joins carry no
		// cache state and pass through untouched.
		return event, true
	}
}

// applyChannelUpdate overlays the partial update, then compares the
// viewer's visibility before and after. A channel that just became
// visible is forwarded as a creation; one that just became invisible
// is forwarded as a deletion. A channel unknown to the cache is
// fetched first, since the update may be the moment it enters view.
func (s *State) applyChannelUpdate(ctx context.Context, ev events.ChannelUpdate) (events.Event, bool) {
	channel, cached := s.channels[ev.ID]
	if !cached {
		fetched, err := s.db.FetchChannel(ctx, ev.ID)
		if err != nil {
			s.log.Warn("channel update for unfetchable channel", "channel", ev.ID, "error", err)
			return nil, false
		}
		channel = fetched
	}
	for _, field := range ev.Clear {
		channel.Remove(field)
	}
	channel.Apply(ev.Data)
	visible := s.canViewChannel(&channel)

	switch {
	case cached && visible:
		s.channels[ev.ID] = channel
		return ev, true
	case cached && !visible:
		s.unsubscribe(ev.ID.Topic())
		delete(s.channels, ev.ID)
		return events.ChannelDelete{ID: ev.ID}, true
	case !cached && visible:
		s.channels[ev.ID] = channel
		s.subscribe(ev.ID.Topic())
		return events.ChannelCreate{Channel: channel}, true
	default:
		return nil, false
	}
}

func (s *State) applyMemberUpdate(ctx context.Context, ev events.ServerMemberUpdate) (events.Event, bool) {
	if ev.ID.User != s.viewer.ID {
		return ev, true
	}
	member, ok := s.members[ev.ID.Server]
	if !ok {
		return ev, true
	}
	rolesChanged := ev.Data.Roles != nil || slices.Contains(ev.Clear, model.FieldsMemberRoles)
	for _, field := range ev.Clear {
		member.Remove(field)
	}
	member.Apply(ev.Data)
	s.members[ev.ID.Server] = member
	if rolesChanged {
		return bundle(s.recalculateServer(ctx, ev.ID.Server), ev), true
	}
	return ev, true
}

func (s *State) applyRoleUpdate(ctx context.Context, ev events.ServerRoleUpdate) (events.Event, bool) {
	server, ok := s.servers[ev.ID]
	if !ok {
		return ev, true
	}
	role := server.Roles[ev.RoleID]
	for _, field := range ev.Clear {
		role.Remove(field)
	}
	role.Apply(ev.Data)
	if server.Roles == nil {
		server.Roles = make(map[ref.RoleID]model.Role)
	}
	server.Roles[ev.RoleID] = role
	s.servers[ev.ID] = server

	member, hasMember := s.members[ev.ID]
	permissionRelevant := ev.Data.Rank != nil || ev.Data.Permissions != nil
	if permissionRelevant && hasMember && member.HasRole(ev.RoleID) {
		return bundle(s.recalculateServer(ctx, ev.ID), ev), true
	}
	return ev, true
}

func (s *State) applyRoleDelete(ctx context.Context, ev events.ServerRoleDelete) (events.Event, bool) {
	server, ok := s.servers[ev.ID]
	if !ok {
		return ev, true
	}
	delete(server.Roles, ev.RoleID)
	s.servers[ev.ID] = server

	member, hasMember := s.members[ev.ID]
	if !hasMember || !member.HasRole(ev.RoleID) {
		return ev, true
	}
	member.Roles = slices.DeleteFunc(slices.Clone(member.Roles),
		func(id ref.RoleID) bool { return id == ev.RoleID })
	s.members[ev.ID] = member
	return bundle(s.recalculateServer(ctx, ev.ID), ev), true
}

// applyUserUpdate suppresses duplicates of fanned-out user updates.
// The same update is published to the user's own topic and to every
// server topic they share with the viewer; the event ID tags those
// copies and only the first one through is forwarded, stripped of the
// tag.
func (s *State) applyUserUpdate(ev events.UserUpdate) (events.Event, bool) {
	if ev.EventID != "" {
		if s.seen.Contains(ev.EventID) {
			return nil, false
		}
		s.seen.Insert(ev.EventID)
		ev.EventID = ""
	}
	if user, ok := s.users[ev.ID]; ok {
		for _, field := range ev.Clear {
			user.Remove(field)
		}
		user.Apply(ev.Data)
		s.users[ev.ID] = user
	}
	if ev.ID == s.viewer.ID {
		for _, field := range ev.Clear {
			s.viewer.Remove(field)
		}
		s.viewer.Apply(ev.Data)
	}
	return ev, true
}

// pruneRecipientSubscriptions drops user subscriptions that a removed
// conversation was the last remaining reason for.
func (s *State) pruneRecipientSubscriptions(channel model.Channel) {
	if channel.Kind != model.ChannelDirectMessage && channel.Kind != model.ChannelGroup {
		return
	}
	for _, recipient := range channel.Recipients {
		if recipient == s.viewer.ID {
			continue
		}
		if !s.canSubscribeToUser(recipient) {
			s.unsubscribe(recipient.Topic())
		}
	}
}

// dropServer removes a server and everything hanging off it: the
// server topic, every cached channel of the server and its topic, the
// server record, and the viewer's membership.
func (s *State) dropServer(id ref.ServerID) {
	s.unsubscribe(id.Topic())
	for channelID, channel := range s.channels {
		if channel.Server == id {
			s.unsubscribe(channelID.Topic())
			delete(s.channels, channelID)
		}
	}
	delete(s.servers, id)
	delete(s.members, id)
}

// setViewerRelation rewrites the viewer's own relations list after a
// relationship change.
func (s *State) setViewerRelation(id ref.UserID, status model.RelationshipStatus) {
	relations := slices.DeleteFunc(slices.Clone(s.viewer.Relations),
		func(r model.Relation) bool { return r.ID == id })
	if status != model.RelationshipNone && status != model.RelationshipUser {
		relations = append(relations, model.Relation{ID: id, Status: status})
	}
	s.viewer.Relations = relations
	if self, ok := s.users[s.viewer.ID]; ok {
		self.Relations = s.viewer.Relations
		s.users[s.viewer.ID] = self
	}
}

// bundle delivers recalculation output together with the event that
// triggered it, synthetic events first.
func bundle(extra []events.Event, original events.Event) events.Event {
	if len(extra) == 0 {
		return original
	}
	return events.Bulk{Events: append(extra, original)}
}
