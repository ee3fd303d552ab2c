// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"slices"
	"time"

	"github.com/ember-chat/ember/lib/ref"
)

// MemberKey is the composite identity of a server membership.
type MemberKey struct {
	Server ref.ServerID `json:"server" cbor:"server"`
	User   ref.UserID   `json:"user" cbor:"user"`
}

// Member is one user's membership record in one server.
type Member struct {
	ID       MemberKey    `json:"id" cbor:"id"`
	JoinedAt time.Time    `json:"joined_at" cbor:"joined_at"`
	Nickname string       `json:"nickname,omitempty" cbor:"nickname,omitempty"`
	Roles    []ref.RoleID `json:"roles,omitempty" cbor:"roles,omitempty"`
}

// HasRole reports whether the member holds the given role.
func (m *Member) HasRole(id ref.RoleID) bool {
	return slices.Contains(m.Roles, id)
}

// Ranking returns the member's effective rank on the server: the
// lowest rank among held roles, or the maximum int64 when the member
// holds none. Lower outranks higher.
func (m *Member) Ranking(server *Server) int64 {
	rank := int64(1<<63 - 1)
	for _, id := range m.Roles {
		if role, ok := server.Roles[id]; ok && role.Rank < rank {
			rank = role.Rank
		}
	}
	return rank
}

// PartialMember carries the changed fields of a member-update event.
type PartialMember struct {
	Nickname *string       `json:"nickname,omitempty" cbor:"nickname,omitempty"`
	Roles    *[]ref.RoleID `json:"roles,omitempty" cbor:"roles,omitempty"`
}

// FieldsMember names member fields that an update may clear.
type FieldsMember string

const (
	FieldsMemberNickname FieldsMember = "nickname"
	FieldsMemberRoles    FieldsMember = "roles"
)

// Remove clears the named field.
func (m *Member) Remove(field FieldsMember) {
	switch field {
	case FieldsMemberNickname:
		m.Nickname = ""
	case FieldsMemberRoles:
		m.Roles = nil
	}
}

// Apply overlays every non-nil partial field onto the record.
func (m *Member) Apply(partial PartialMember) {
	if partial.Nickname != nil {
		m.Nickname = *partial.Nickname
	}
	if partial.Roles != nil {
		m.Roles = *partial.Roles
	}
}
