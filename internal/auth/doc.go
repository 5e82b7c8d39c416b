// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements the credential and session lifecycle core.
//
// # Domain Types
//
// Principal is the identity record. Create it with NewPrincipal, which
// validates the username and assigns a ULID; direct struct initialization
// bypasses validation and may create invalid state. Repository
// implementations receive pre-validated principals.
//
// # Components
//
//   - PasswordHasher / Argon2idHasher - salted one-way hashing for login
//     passwords and refresh-tokens-at-rest
//   - TOTPVerifier / TimeStepVerifier - time-based one-time-password
//     second factor with clock-skew tolerance
//   - TokenIssuer / JWTIssuer - signed, expiring access and refresh tokens
//     with distinct signing keys
//   - Service - the session state machine composing the above: register,
//     login, refresh, logout, and two-step TOTP enrollment
//
// A refresh token is only honored when both its signature verifies and its
// hash matches the single slot persisted on the principal. Signature-valid
// tokens that miss the stored hash are treated as revoked, never as
// malformed.
package auth
