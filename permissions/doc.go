// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package permissions evaluates what a user may do in a channel.
//
// The evaluator is a pure function of the supplied context: a [Query]
// bundles the user with their optional membership, server, and channel
// records, and [CalculateChannelPermissions] folds the server default
// permissions, the member's role overrides (in descending rank order,
// so the most powerful role is applied last), the channel default
// override, and the channel's per-role overrides into a capability
// [Set]. No I/O, no synchronization.
//
// Capability bits follow the data model's single 64-bit permission
// space: server-management bits in the low range, channel bits from
// bit 20 upward, voice bits from bit 30.
package permissions
