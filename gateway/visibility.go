// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/permissions"
)

// canViewChannel is the visibility predicate: saved-messages, direct
// messages, and groups are visible to anyone who holds a record of
// them, while server channels require the view capability computed
// from cached server and membership context. A server channel whose
// server or membership is not cached is not visible.
func (s *State) canViewChannel(channel *model.Channel) bool {
	if !channel.IsServerChannel() {
		return true
	}
	query := permissions.Query{User: &s.viewer, Channel: channel}
	if server, ok := s.servers[channel.Server]; ok {
		query.Server = &server
	}
	if member, ok := s.members[channel.Server]; ok {
		query.Member = &member
	}
	return permissions.CalculateChannelPermissions(query).Has(permissions.ViewChannel)
}

// canSubscribeToUser reports whether the viewer can reach the user
// through some relationship or shared conversation: themselves, a
// friend, a pending request in either direction, or a fellow
// direct-message/group recipient.
func (s *State) canSubscribeToUser(id ref.UserID) bool {
	switch s.viewer.RelationshipWith(id) {
	case model.RelationshipUser, model.RelationshipFriend,
		model.RelationshipIncoming, model.RelationshipOutgoing:
		return true
	}
	for _, channel := range s.channels {
		switch channel.Kind {
		case model.ChannelDirectMessage, model.ChannelGroup:
			if channel.HasRecipient(id) {
				return true
			}
		}
	}
	return false
}
