// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// Kind names an event type on the wire.
type Kind string

const (
	KindReady              Kind = "ready"
	KindBulk               Kind = "bulk"
	KindChannelCreate      Kind = "channel_create"
	KindChannelUpdate      Kind = "channel_update"
	KindChannelDelete      Kind = "channel_delete"
	KindChannelGroupJoin   Kind = "channel_group_join"
	KindChannelGroupLeave  Kind = "channel_group_leave"
	KindChannelStartTyping Kind = "channel_start_typing"
	KindChannelStopTyping  Kind = "channel_stop_typing"
	KindChannelAck         Kind = "channel_ack"
	KindMessage            Kind = "message"
	KindServerCreate       Kind = "server_create"
	KindServerUpdate       Kind = "server_update"
	KindServerDelete       Kind = "server_delete"
	KindServerMemberJoin   Kind = "server_member_join"
	KindServerMemberLeave  Kind = "server_member_leave"
	KindServerMemberUpdate Kind = "server_member_update"
	KindServerRoleUpdate   Kind = "server_role_update"
	KindServerRoleDelete   Kind = "server_role_delete"
	KindUserUpdate         Kind = "user_update"
	KindUserRelationship   Kind = "user_relationship"
)

// Event is one entry of the global mutation stream.
type Event interface {
	Kind() Kind
}

// Ready is the complete initial state sent to a client immediately
// after connecting.
type Ready struct {
	Users       []model.User              `cbor:"users"`
	Servers     []model.Server            `cbor:"servers"`
	Channels    []model.Channel           `cbor:"channels"`
	Members     []model.Member            `cbor:"members"`
	Emojis      []model.Emoji             `cbor:"emojis"`
	VoiceStates []model.ChannelVoiceState `cbor:"voice_states"`
}

func (Ready) Kind() Kind { return KindReady }

// Bulk wraps several events into one frame, preserving order. The
// applier uses it to deliver recalculation output together with the
// event that triggered it.
type Bulk struct {
	Events []Event
}

func (Bulk) Kind() Kind { return KindBulk }

// ChannelCreate announces a channel newly visible to the subscriber.
type ChannelCreate struct {
	Channel model.Channel `cbor:"channel"`
}

func (ChannelCreate) Kind() Kind { return KindChannelCreate }

// ChannelUpdate carries a partial channel mutation.
type ChannelUpdate struct {
	ID    ref.ChannelID         `cbor:"id"`
	Data  model.PartialChannel  `cbor:"data"`
	Clear []model.FieldsChannel `cbor:"clear,omitempty"`
}

func (ChannelUpdate) Kind() Kind { return KindChannelUpdate }

// ChannelDelete announces a channel that is gone (or no longer
// visible to the subscriber).
type ChannelDelete struct {
	ID ref.ChannelID `cbor:"id"`
}

func (ChannelDelete) Kind() Kind { return KindChannelDelete }

// ChannelGroupJoin announces a user joining a group channel.
type ChannelGroupJoin struct {
	ID   ref.ChannelID `cbor:"id"`
	User ref.UserID    `cbor:"user"`
}

func (ChannelGroupJoin) Kind() Kind { return KindChannelGroupJoin }

// ChannelGroupLeave announces a user leaving a group channel.
type ChannelGroupLeave struct {
	ID   ref.ChannelID `cbor:"id"`
	User ref.UserID    `cbor:"user"`
}

func (ChannelGroupLeave) Kind() Kind { return KindChannelGroupLeave }

// ChannelStartTyping and ChannelStopTyping are ephemeral typing
// indicators; the applier passes them through untouched.
type ChannelStartTyping struct {
	ID   ref.ChannelID `cbor:"id"`
	User ref.UserID    `cbor:"user"`
}

func (ChannelStartTyping) Kind() Kind { return KindChannelStartTyping }

type ChannelStopTyping struct {
	ID   ref.ChannelID `cbor:"id"`
	User ref.UserID    `cbor:"user"`
}

func (ChannelStopTyping) Kind() Kind { return KindChannelStopTyping }

// ChannelAck acknowledges messages up to MessageID as read.
type ChannelAck struct {
	ID        ref.ChannelID `cbor:"id"`
	User      ref.UserID    `cbor:"user"`
	MessageID string        `cbor:"message_id"`
}

func (ChannelAck) Kind() Kind { return KindChannelAck }

// Message is a chat message; the applier passes it through untouched.
type Message struct {
	ID      string        `cbor:"id"`
	Channel ref.ChannelID `cbor:"channel"`
	Author  ref.UserID    `cbor:"author"`
	Content string        `cbor:"content"`
}

func (Message) Kind() Kind { return KindMessage }

// ServerCreate announces a server the subscriber just gained (created
// or joined), bundling the server record and its channels.
type ServerCreate struct {
	ID       ref.ServerID    `cbor:"id"`
	Server   model.Server    `cbor:"server"`
	Channels []model.Channel `cbor:"channels"`
	Emojis   []model.Emoji   `cbor:"emojis,omitempty"`
}

func (ServerCreate) Kind() Kind { return KindServerCreate }

// ServerUpdate carries a partial server mutation.
type ServerUpdate struct {
	ID    ref.ServerID         `cbor:"id"`
	Data  model.PartialServer  `cbor:"data"`
	Clear []model.FieldsServer `cbor:"clear,omitempty"`
}

func (ServerUpdate) Kind() Kind { return KindServerUpdate }

// ServerDelete announces a deleted server.
type ServerDelete struct {
	ID ref.ServerID `cbor:"id"`
}

func (ServerDelete) Kind() Kind { return KindServerDelete }

// ServerMemberJoin announces a user joining a server.
type ServerMemberJoin struct {
	ID   ref.ServerID `cbor:"id"`
	User ref.UserID   `cbor:"user"`
}

func (ServerMemberJoin) Kind() Kind { return KindServerMemberJoin }

// ServerMemberLeave announces a user leaving (or being removed from)
// a server.
type ServerMemberLeave struct {
	ID   ref.ServerID `cbor:"id"`
	User ref.UserID   `cbor:"user"`
}

func (ServerMemberLeave) Kind() Kind { return KindServerMemberLeave }

// ServerMemberUpdate carries a partial mutation of one membership.
type ServerMemberUpdate struct {
	ID    model.MemberKey      `cbor:"id"`
	Data  model.PartialMember  `cbor:"data"`
	Clear []model.FieldsMember `cbor:"clear,omitempty"`
}

func (ServerMemberUpdate) Kind() Kind { return KindServerMemberUpdate }

// ServerRoleUpdate carries a partial mutation of one role.
type ServerRoleUpdate struct {
	ID     ref.ServerID       `cbor:"id"`
	RoleID ref.RoleID         `cbor:"role_id"`
	Data   model.PartialRole  `cbor:"data"`
	Clear  []model.FieldsRole `cbor:"clear,omitempty"`
}

func (ServerRoleUpdate) Kind() Kind { return KindServerRoleUpdate }

// ServerRoleDelete announces a deleted role.
type ServerRoleDelete struct {
	ID     ref.ServerID `cbor:"id"`
	RoleID ref.RoleID   `cbor:"role_id"`
}

func (ServerRoleDelete) Kind() Kind { return KindServerRoleDelete }

// UserUpdate carries a partial user mutation. EventID, when present,
// deduplicates the fan-out: the same update is published to several
// topics a connection may subscribe to (the user's own topic plus
// shared server topics), and subscribers drop repeats. The applier
// strips EventID before forwarding.
type UserUpdate struct {
	ID      ref.UserID         `cbor:"id"`
	Data    model.PartialUser  `cbor:"data"`
	Clear   []model.FieldsUser `cbor:"clear,omitempty"`
	EventID string             `cbor:"event_id,omitempty"`
}

func (UserUpdate) Kind() Kind { return KindUserUpdate }

// UserRelationship announces that the relationship between the
// recipient and the carried user changed, with the user record
// re-rendered for the recipient.
type UserRelationship struct {
	ID     ref.UserID               `cbor:"id"`
	User   model.User               `cbor:"user"`
	Status model.RelationshipStatus `cbor:"status"`
}

func (UserRelationship) Kind() Kind { return KindUserRelationship }
