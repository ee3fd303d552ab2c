// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "github.com/ember-chat/ember/lib/ref"

// Role is a named permission bundle on a server. Lower rank outranks
// higher rank (rank 0 is the most powerful).
type Role struct {
	Name        string             `json:"name" cbor:"name"`
	Permissions PermissionOverride `json:"permissions" cbor:"permissions"`
	Colour      string             `json:"colour,omitempty" cbor:"colour,omitempty"`
	Rank        int64              `json:"rank" cbor:"rank"`
}

// Server is a community holding channels, roles, and members.
type Server struct {
	ID          ref.ServerID        `json:"id" cbor:"id"`
	Owner       ref.UserID          `json:"owner" cbor:"owner"`
	Name        string              `json:"name" cbor:"name"`
	Description string              `json:"description,omitempty" cbor:"description,omitempty"`
	Channels    []ref.ChannelID     `json:"channels" cbor:"channels"`
	Roles       map[ref.RoleID]Role `json:"roles,omitempty" cbor:"roles,omitempty"`
	Emojis      []ref.EmojiID       `json:"emojis,omitempty" cbor:"emojis,omitempty"`

	// DefaultPermissions apply to every member with no overriding role.
	DefaultPermissions uint64 `json:"default_permissions" cbor:"default_permissions"`
}

// Role returns the role record for id, or false when the server has no
// such role.
func (s *Server) Role(id ref.RoleID) (Role, bool) {
	role, ok := s.Roles[id]
	return role, ok
}

// PartialServer carries the changed fields of a server-update event.
type PartialServer struct {
	Name               *string          `json:"name,omitempty" cbor:"name,omitempty"`
	Description        *string          `json:"description,omitempty" cbor:"description,omitempty"`
	Owner              *ref.UserID      `json:"owner,omitempty" cbor:"owner,omitempty"`
	Channels           *[]ref.ChannelID `json:"channels,omitempty" cbor:"channels,omitempty"`
	DefaultPermissions *uint64          `json:"default_permissions,omitempty" cbor:"default_permissions,omitempty"`
}

// FieldsServer names server fields that an update may clear.
type FieldsServer string

const (
	FieldsServerDescription FieldsServer = "description"
)

// Remove clears the named field.
func (s *Server) Remove(field FieldsServer) {
	switch field {
	case FieldsServerDescription:
		s.Description = ""
	}
}

// Apply overlays every non-nil partial field onto the record.
func (s *Server) Apply(partial PartialServer) {
	if partial.Name != nil {
		s.Name = *partial.Name
	}
	if partial.Description != nil {
		s.Description = *partial.Description
	}
	if partial.Owner != nil {
		s.Owner = *partial.Owner
	}
	if partial.Channels != nil {
		s.Channels = *partial.Channels
	}
	if partial.DefaultPermissions != nil {
		s.DefaultPermissions = *partial.DefaultPermissions
	}
}

// PartialRole carries the changed fields of a role-update event.
type PartialRole struct {
	Name        *string             `json:"name,omitempty" cbor:"name,omitempty"`
	Permissions *PermissionOverride `json:"permissions,omitempty" cbor:"permissions,omitempty"`
	Colour      *string             `json:"colour,omitempty" cbor:"colour,omitempty"`
	Rank        *int64              `json:"rank,omitempty" cbor:"rank,omitempty"`
}

// FieldsRole names role fields that an update may clear.
type FieldsRole string

const (
	FieldsRoleColour FieldsRole = "colour"
)

// Remove clears the named field.
func (r *Role) Remove(field FieldsRole) {
	switch field {
	case FieldsRoleColour:
		r.Colour = ""
	}
}

// Apply overlays every non-nil partial field onto the record.
func (r *Role) Apply(partial PartialRole) {
	if partial.Name != nil {
		r.Name = *partial.Name
	}
	if partial.Permissions != nil {
		r.Permissions = *partial.Permissions
	}
	if partial.Colour != nil {
		r.Colour = *partial.Colour
	}
	if partial.Rank != nil {
		r.Rank = *partial.Rank
	}
}
