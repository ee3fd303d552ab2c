// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated, typed identifiers for Ember entities.
//
// Every persistent entity (user, server, channel, role, emoji) is keyed
// by a ULID: 26 characters of Crockford base32 encoding a millisecond
// timestamp plus random entropy. The typed wrappers prevent the classic
// string-ID mixups (passing a channel ID where a server ID is expected)
// at compile time, and guarantee that a non-zero value has already been
// validated.
//
// All ID types are immutable value types. The zero value is not valid;
// use IsZero to check. Construction goes through ParseX (validating an
// existing string) or NewX (minting a fresh ULID).
//
// [Topic] is the pub/sub topic namespace. Entity IDs convert to topics
// (a user's topic carries that user's events, and so on); a connection's
// session-private topic is minted with [NewPrivateTopic].
//
// All types implement encoding.TextMarshaler / TextUnmarshaler so they
// serialize as plain strings through lib/codec and encoding/json.
package ref
