// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"sort"

	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// Query bundles the context a permission calculation needs. User is
// required; Member, Server, and Channel are supplied when known. The
// evaluator never fetches anything — missing context simply means the
// corresponding layer contributes nothing.
type Query struct {
	User    *model.User
	Member  *model.Member
	Server  *model.Server
	Channel *model.Channel
}

// CalculateChannelPermissions computes the capability set the query's
// user holds in the query's channel.
func CalculateChannelPermissions(q Query) Set {
	if q.User == nil || q.Channel == nil {
		return 0
	}

	switch q.Channel.Kind {
	case model.ChannelSavedMessages:
		if q.Channel.User == q.User.ID {
			return All
		}
		return 0

	case model.ChannelDirectMessage:
		if !q.Channel.HasRecipient(q.User.ID) {
			return 0
		}
		for _, recipient := range q.Channel.Recipients {
			if recipient == q.User.ID {
				continue
			}
			switch q.User.RelationshipWith(recipient) {
			case model.RelationshipBlocked, model.RelationshipBlockedOther:
				return DefaultBlocked
			}
		}
		return DefaultDirect

	case model.ChannelGroup:
		if q.Channel.Owner == q.User.ID {
			return All
		}
		if !q.Channel.HasRecipient(q.User.ID) {
			return 0
		}
		if q.Channel.Permissions != nil {
			return Set(*q.Channel.Permissions)
		}
		return DefaultDirect

	case model.ChannelText, model.ChannelVoice:
		return calculateServerChannel(q)

	default:
		return 0
	}
}

// calculateServerChannel layers the server defaults, the member's role
// overrides, the channel default override, and the channel's per-role
// overrides. A user with no membership record holds nothing.
func calculateServerChannel(q Query) Set {
	if q.Server == nil || q.Member == nil {
		return 0
	}
	if q.Server.Owner == q.User.ID {
		return All
	}

	perms := Set(q.Server.DefaultPermissions)

	// Descending rank order: the least powerful role is applied first
	// so a more powerful role's override wins.
	roles := heldRolesByRank(q.Server, q.Member)
	for _, id := range roles {
		role := q.Server.Roles[id]
		perms = perms.apply(role.Permissions.Allow, role.Permissions.Deny)
	}

	if q.Channel.DefaultPermissions != nil {
		perms = perms.apply(q.Channel.DefaultPermissions.Allow, q.Channel.DefaultPermissions.Deny)
	}

	for _, id := range roles {
		if override, ok := q.Channel.RolePermissions[id]; ok {
			perms = perms.apply(override.Allow, override.Deny)
		}
	}

	return perms
}

// heldRolesByRank returns the roles the member holds that exist on the
// server, sorted by descending rank (least powerful first).
func heldRolesByRank(server *model.Server, member *model.Member) []ref.RoleID {
	held := make([]ref.RoleID, 0, len(member.Roles))
	for _, id := range member.Roles {
		if _, ok := server.Roles[id]; ok {
			held = append(held, id)
		}
	}
	sort.SliceStable(held, func(i, j int) bool {
		return server.Roles[held[i]].Rank > server.Roles[held[j]].Rank
	})
	return held
}
