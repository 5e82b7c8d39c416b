// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested principal does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when a username is already taken.
// Repository implementations must detect the store-level uniqueness
// violation so concurrent registrations yield exactly one success.
var ErrDuplicateUsername = errors.New("username already taken")
