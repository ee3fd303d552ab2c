// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is Ember's standard serialization: CBOR with Core
// Deterministic Encoding (RFC 8949 §4.2). The same logical value
// always produces identical bytes, which keeps database blobs
// byte-comparable and event frames reproducible in tests.
//
// Consumers import only this package, never fxamacker/cbor directly;
// the encoder and decoder options live here in one place.
package codec
