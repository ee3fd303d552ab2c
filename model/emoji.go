// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "github.com/ember-chat/ember/lib/ref"

// Emoji is a custom emoji attached to a server.
type Emoji struct {
	ID       ref.EmojiID  `json:"id" cbor:"id"`
	Parent   ref.ServerID `json:"parent" cbor:"parent"`
	Creator  ref.UserID   `json:"creator" cbor:"creator"`
	Name     string       `json:"name" cbor:"name"`
	Animated bool         `json:"animated,omitempty" cbor:"animated,omitempty"`
}
