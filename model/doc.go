// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package model defines the chat entities the gateway synchronizes:
// users, servers, roles, members, channels, emoji, and voice states.
//
// Mutation events on the global stream carry a partial record plus a
// list of fields to clear. Each entity therefore has a Partial
// counterpart and a Fields enum, applied through the entity's Apply and
// Remove methods: Remove runs first (clearing fields), then Apply
// overlays every non-nil partial field. This mirrors the update shape
// the database layer and the event stream share.
//
// All types serialize identically through encoding/json and lib/codec;
// struct tags name the wire fields once.
package model
