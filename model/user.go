// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "github.com/ember-chat/ember/lib/ref"

// RelationshipStatus describes how a user relates to the viewer.
type RelationshipStatus string

const (
	// RelationshipNone means no relation exists.
	RelationshipNone RelationshipStatus = "none"
	// RelationshipUser marks the viewer's own record.
	RelationshipUser RelationshipStatus = "user"
	// RelationshipFriend is a mutual friendship.
	RelationshipFriend RelationshipStatus = "friend"
	// RelationshipOutgoing is a friend request sent by the viewer.
	RelationshipOutgoing RelationshipStatus = "outgoing"
	// RelationshipIncoming is a friend request sent to the viewer.
	RelationshipIncoming RelationshipStatus = "incoming"
	// RelationshipBlocked means the viewer blocked this user.
	RelationshipBlocked RelationshipStatus = "blocked"
	// RelationshipBlockedOther means this user blocked the viewer.
	RelationshipBlockedOther RelationshipStatus = "blocked_other"
)

// Presence is a user's chosen presence mode.
type Presence string

const (
	PresenceOnline    Presence = "online"
	PresenceIdle      Presence = "idle"
	PresenceBusy      Presence = "busy"
	PresenceInvisible Presence = "invisible"
)

// UserStatus is a user's presence mode plus optional status text.
type UserStatus struct {
	Text     string   `json:"text,omitempty" cbor:"text,omitempty"`
	Presence Presence `json:"presence,omitempty" cbor:"presence,omitempty"`
}

// Relation records one entry of a user's relationship list.
type Relation struct {
	ID     ref.UserID         `json:"id" cbor:"id"`
	Status RelationshipStatus `json:"status" cbor:"status"`
}

// User is a user record. Relations are only ever populated on the
// viewer's own record; records rendered for other users carry the
// viewer-perspective Relationship field instead.
type User struct {
	ID          ref.UserID  `json:"id" cbor:"id"`
	Username    string      `json:"username" cbor:"username"`
	DisplayName string      `json:"display_name,omitempty" cbor:"display_name,omitempty"`
	Status      *UserStatus `json:"status,omitempty" cbor:"status,omitempty"`
	Relations   []Relation  `json:"relations,omitempty" cbor:"relations,omitempty"`

	// Online and Relationship are viewer-perspective fields filled in
	// by AsSeenBy / AsSelf, never stored.
	Online       bool               `json:"online" cbor:"online"`
	Relationship RelationshipStatus `json:"relationship,omitempty" cbor:"relationship,omitempty"`
}

// RelationshipWith returns this user's recorded relation to the given
// user, or RelationshipNone. Asking about the user's own ID returns
// RelationshipUser.
func (u *User) RelationshipWith(id ref.UserID) RelationshipStatus {
	if id == u.ID {
		return RelationshipUser
	}
	for _, relation := range u.Relations {
		if relation.ID == id {
			return relation.Status
		}
	}
	return RelationshipNone
}

// AsSeenBy renders this user's record from the viewer's perspective:
// the relations list is stripped (it is private to its owner), the
// viewer's relationship to this user is resolved, and the online flag
// is set. Blocked users additionally lose their status.
func (u User) AsSeenBy(viewer *User, online bool) User {
	rendered := u
	rendered.Relations = nil
	rendered.Relationship = viewer.RelationshipWith(u.ID)
	rendered.Online = online

	if rendered.Relationship == RelationshipBlocked || rendered.Relationship == RelationshipBlockedOther {
		rendered.Status = nil
		rendered.Online = false
	}
	if u.Status != nil && u.Status.Presence == PresenceInvisible {
		rendered.Online = false
		rendered.Status = nil
	}
	return rendered
}

// AsSelf renders the viewer's own record: relations are preserved and
// the relationship marker points at itself.
func (u User) AsSelf() User {
	rendered := u
	rendered.Relationship = RelationshipUser
	rendered.Online = true
	return rendered
}

// PartialUser carries the changed fields of a user-update event.
type PartialUser struct {
	Username    *string     `json:"username,omitempty" cbor:"username,omitempty"`
	DisplayName *string     `json:"display_name,omitempty" cbor:"display_name,omitempty"`
	Status      *UserStatus `json:"status,omitempty" cbor:"status,omitempty"`
	Online      *bool       `json:"online,omitempty" cbor:"online,omitempty"`
}

// FieldsUser names user fields that an update may clear.
type FieldsUser string

const (
	FieldsUserStatus      FieldsUser = "status"
	FieldsUserDisplayName FieldsUser = "display_name"
)

// Remove clears the named field.
func (u *User) Remove(field FieldsUser) {
	switch field {
	case FieldsUserStatus:
		u.Status = nil
	case FieldsUserDisplayName:
		u.DisplayName = ""
	}
}

// Apply overlays every non-nil partial field onto the record.
func (u *User) Apply(partial PartialUser) {
	if partial.Username != nil {
		u.Username = *partial.Username
	}
	if partial.DisplayName != nil {
		u.DisplayName = *partial.DisplayName
	}
	if partial.Status != nil {
		u.Status = partial.Status
	}
	if partial.Online != nil {
		u.Online = *partial.Online
	}
}
