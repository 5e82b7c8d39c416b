// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package candidate holds the candidate resource exposed through the
// role-gated endpoints.
package candidate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a candidate does not exist.
var ErrNotFound = errors.New("candidate not found")

// MaxNameLength bounds candidate names.
const MaxNameLength = 200

// Candidate is a tracked applicant record.
type Candidate struct {
	ID        ulid.ULID
	Name      string
	CreatedAt time.Time
}

// New creates a validated Candidate with a fresh ULID.
func New(name string) (*Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("CANDIDATE_INVALID_NAME").Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, oops.Code("CANDIDATE_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}

	return &Candidate{
		ID:        ulid.Make(),
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}

// Repository manages candidate persistence.
type Repository interface {
	// Create stores a new candidate.
	Create(ctx context.Context, candidate *Candidate) error

	// List returns all candidates ordered by creation time.
	List(ctx context.Context) ([]*Candidate, error)
}
