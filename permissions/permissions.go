// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package permissions

// Permission is a single capability bit.
type Permission uint64

const (
	// Server-scoped capabilities.
	ManageChannel Permission = 1 << 0
	ManageServer  Permission = 1 << 1
	ManageRole    Permission = 1 << 3
	KickMembers   Permission = 1 << 6
	BanMembers    Permission = 1 << 7
	AssignRoles   Permission = 1 << 9

	// Channel-scoped capabilities.
	ViewChannel        Permission = 1 << 20
	ReadMessageHistory Permission = 1 << 21
	SendMessage        Permission = 1 << 22
	ManageMessages     Permission = 1 << 23
	InviteOthers       Permission = 1 << 25
	React              Permission = 1 << 29

	// Voice capabilities.
	Connect     Permission = 1 << 30
	Speak       Permission = 1 << 31
	Video       Permission = 1 << 32
	MuteMembers Permission = 1 << 33
)

// Set is a calculated capability set.
type Set uint64

// All grants every capability. Used for owners and saved-messages
// channels.
const All Set = ^Set(0)

// DefaultDirect is what participants of direct messages, groups, and
// saved-messages conversations hold unless a group override narrows it.
const DefaultDirect = Set(ViewChannel | ReadMessageHistory | SendMessage | React | InviteOthers | Connect | Speak | Video)

// DefaultBlocked is all a user may do in a direct message with someone
// who blocked them (or whom they blocked): see that it exists.
const DefaultBlocked = Set(ViewChannel | ReadMessageHistory)

// Has reports whether the set contains the capability.
func (s Set) Has(p Permission) bool {
	return uint64(s)&uint64(p) != 0
}

// apply folds an allow/deny override into the set: allows first, then
// denies, so a deny in the same override wins.
func (s Set) apply(allow, deny uint64) Set {
	return Set((uint64(s) | allow) &^ deny)
}
