// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package events defines the mutation events flowing through the
// gateway: the global stream published on pub/sub topics, the ready
// snapshot sent at connect time, and the synthetic events the
// per-connection applier fabricates when a viewer's visibility
// changes.
//
// An event is a value implementing [Event]; the concrete structs are
// plain data. On the wire each event travels as a CBOR envelope
// {type, data} encoded through lib/codec; [Marshal] and [Unmarshal]
// handle the envelope and the type registry, including the recursive
// encoding of [Bulk] batches.
package events
