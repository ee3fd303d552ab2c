// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway maintains one connected client's view of the world.
//
// Each connection owns a State: a permission-filtered cache of the
// servers, channels, members, and users the viewer may currently see,
// together with the pub/sub subscription set that keeps future events
// flowing for exactly those entities. The State is populated once by
// BuildReady, which assembles the initial payload sent to the client,
// and is then mutated one event at a time by Apply, which decides what
// (if anything) reaches the client and rewrites events whose meaning
// differs for this particular viewer — a channel update that revokes
// the viewer's access becomes a channel deletion, and one that grants
// access becomes a creation.
//
// A State is exclusively owned by its connection's goroutine. Nothing
// here takes locks: feed events through Apply strictly one at a time
// and do not share the State across goroutines.
package gateway
