// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and identity types.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token generation,
// JWT verification) from the domain logic. Domain services consume it through
// small interfaces so that tests can swap in deterministic fakes.
package sec

// Principal is the normalized identity of an authenticated caller.
//
// Both authentication paths (opaque session tokens, externally issued JWTs)
// resolve a bearer token into this one shape, so downstream handlers never
// care which provider a deployment runs.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
