// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package model

// PermissionOverride is an allow/deny pair of capability bitmasks
// attached to roles, channel defaults, and per-role channel overrides.
// The bit meanings live in the permissions package; the data model only
// stores them.
type PermissionOverride struct {
	Allow uint64 `json:"a" cbor:"a"`
	Deny  uint64 `json:"d" cbor:"d"`
}
