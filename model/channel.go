// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"slices"

	"github.com/ember-chat/ember/lib/ref"
)

// ChannelKind discriminates the channel variants.
type ChannelKind string

const (
	// ChannelSavedMessages is a user's private notes channel.
	ChannelSavedMessages ChannelKind = "saved_messages"
	// ChannelDirectMessage is a two-party conversation.
	ChannelDirectMessage ChannelKind = "direct_message"
	// ChannelGroup is a multi-party conversation outside any server.
	ChannelGroup ChannelKind = "group"
	// ChannelText is a text channel belonging to a server.
	ChannelText ChannelKind = "text"
	// ChannelVoice is a voice channel belonging to a server.
	ChannelVoice ChannelKind = "voice"
)

// VoiceInformation configures the voice side of a channel.
type VoiceInformation struct {
	// MaxUsers caps concurrent participants. Zero means unlimited.
	MaxUsers uint32 `json:"max_users,omitempty" cbor:"max_users,omitempty"`
}

// Channel is one channel record. Which fields are meaningful depends
// on Kind: Server/DefaultPermissions/RolePermissions for server
// channels, Recipients/Owner for direct messages and groups, User for
// saved messages.
type Channel struct {
	ID   ref.ChannelID `json:"id" cbor:"id"`
	Kind ChannelKind   `json:"kind" cbor:"kind"`

	// User owns a saved-messages channel.
	User ref.UserID `json:"user,omitempty" cbor:"user,omitempty"`

	// Server owns text and voice channels.
	Server ref.ServerID `json:"server,omitempty" cbor:"server,omitempty"`

	Name        string `json:"name,omitempty" cbor:"name,omitempty"`
	Description string `json:"description,omitempty" cbor:"description,omitempty"`

	// Owner and Recipients describe group/DM participation.
	Owner      ref.UserID   `json:"owner,omitempty" cbor:"owner,omitempty"`
	Recipients []ref.UserID `json:"recipients,omitempty" cbor:"recipients,omitempty"`

	// Active marks a direct-message channel open on both sides.
	Active bool `json:"active,omitempty" cbor:"active,omitempty"`

	// Permissions is the group-wide permission value (groups only).
	Permissions *uint64 `json:"permissions,omitempty" cbor:"permissions,omitempty"`

	// DefaultPermissions and RolePermissions refine server-channel
	// visibility on top of the server's own permission set.
	DefaultPermissions *PermissionOverride               `json:"default_permissions,omitempty" cbor:"default_permissions,omitempty"`
	RolePermissions    map[ref.RoleID]PermissionOverride `json:"role_permissions,omitempty" cbor:"role_permissions,omitempty"`

	LastMessageID string            `json:"last_message_id,omitempty" cbor:"last_message_id,omitempty"`
	NSFW          bool              `json:"nsfw,omitempty" cbor:"nsfw,omitempty"`
	Voice         *VoiceInformation `json:"voice,omitempty" cbor:"voice,omitempty"`
}

// IsServerChannel reports whether the channel belongs to a server and
// is therefore subject to the permission-based visibility predicate.
func (c *Channel) IsServerChannel() bool {
	return c.Kind == ChannelText || c.Kind == ChannelVoice
}

// VoiceCapable reports whether users can hold a voice session in this
// channel: dedicated voice channels, text channels with voice
// information, and direct conversations.
func (c *Channel) VoiceCapable() bool {
	switch c.Kind {
	case ChannelVoice:
		return true
	case ChannelText:
		return c.Voice != nil
	case ChannelDirectMessage, ChannelGroup:
		return true
	default:
		return false
	}
}

// HasRecipient reports whether the user participates in this
// direct-message or group channel.
func (c *Channel) HasRecipient(id ref.UserID) bool {
	return slices.Contains(c.Recipients, id)
}

// PartialChannel carries the changed fields of a channel-update event.
type PartialChannel struct {
	Name               *string                            `json:"name,omitempty" cbor:"name,omitempty"`
	Owner              *ref.UserID                        `json:"owner,omitempty" cbor:"owner,omitempty"`
	Description        *string                            `json:"description,omitempty" cbor:"description,omitempty"`
	Active             *bool                              `json:"active,omitempty" cbor:"active,omitempty"`
	Permissions        *uint64                            `json:"permissions,omitempty" cbor:"permissions,omitempty"`
	DefaultPermissions *PermissionOverride               `json:"default_permissions,omitempty" cbor:"default_permissions,omitempty"`
	RolePermissions    map[ref.RoleID]PermissionOverride `json:"role_permissions,omitempty" cbor:"role_permissions,omitempty"`
	LastMessageID      *string                            `json:"last_message_id,omitempty" cbor:"last_message_id,omitempty"`
	NSFW               *bool                              `json:"nsfw,omitempty" cbor:"nsfw,omitempty"`
}

// FieldsChannel names channel fields that an update may clear.
type FieldsChannel string

const (
	FieldsChannelDescription        FieldsChannel = "description"
	FieldsChannelDefaultPermissions FieldsChannel = "default_permissions"
)

// Remove clears the named field.
func (c *Channel) Remove(field FieldsChannel) {
	switch field {
	case FieldsChannelDescription:
		c.Description = ""
	case FieldsChannelDefaultPermissions:
		c.DefaultPermissions = nil
	}
}

// Apply overlays every non-nil partial field onto the record.
func (c *Channel) Apply(partial PartialChannel) {
	if partial.Name != nil {
		c.Name = *partial.Name
	}
	if partial.Owner != nil {
		c.Owner = *partial.Owner
	}
	if partial.Description != nil {
		c.Description = *partial.Description
	}
	if partial.Active != nil {
		c.Active = *partial.Active
	}
	if partial.Permissions != nil {
		c.Permissions = partial.Permissions
	}
	if partial.DefaultPermissions != nil {
		c.DefaultPermissions = partial.DefaultPermissions
	}
	if partial.RolePermissions != nil {
		c.RolePermissions = partial.RolePermissions
	}
	if partial.LastMessageID != nil {
		c.LastMessageID = *partial.LastMessageID
	}
	if partial.NSFW != nil {
		c.NSFW = *partial.NSFW
	}
}
