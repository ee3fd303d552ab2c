// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "github.com/ember-chat/ember/lib/ref"

// UserVoiceState is one participant's state inside a voice session.
type UserVoiceState struct {
	ID           ref.UserID `json:"id" cbor:"id"`
	CanReceive   bool       `json:"can_receive" cbor:"can_receive"`
	CanPublish   bool       `json:"can_publish" cbor:"can_publish"`
	ScreenShare  bool       `json:"screen_share,omitempty" cbor:"screen_share,omitempty"`
	Camera       bool       `json:"camera,omitempty" cbor:"camera,omitempty"`
}

// ChannelVoiceState lists the participants connected to one channel's
// voice session.
type ChannelVoiceState struct {
	ID           ref.ChannelID    `json:"id" cbor:"id"`
	Participants []UserVoiceState `json:"participants" cbor:"participants"`
}
