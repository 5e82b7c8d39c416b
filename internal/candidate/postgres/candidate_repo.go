// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres implements the candidate repository on PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/candidate"
)

// querier is the subset of pgxpool.Pool used by the repository. Satisfied by
// pgxmock in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CandidateRepository implements candidate.Repository using PostgreSQL.
type CandidateRepository struct {
	db querier
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(db querier) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create stores a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *candidate.Candidate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO candidates (id, name, created_at)
		VALUES ($1, $2, $3)
	`, c.ID.String(), c.Name, c.CreatedAt)
	if err != nil {
		return oops.Code("CANDIDATE_CREATE_FAILED").
			With("operation", "insert candidate").
			Wrap(err)
	}
	return nil
}

// List returns all candidates ordered by creation time. ULIDs sort
// lexicographically in creation order, so ordering by id is stable even for
// rows created within the same timestamp.
func (r *CandidateRepository) List(ctx context.Context) ([]*candidate.Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM candidates
		ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code("CANDIDATE_LIST_FAILED").
			With("operation", "query candidates").
			Wrap(err)
	}
	defer rows.Close()

	var candidates []*candidate.Candidate
	for rows.Next() {
		var (
			idStr     string
			name      string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &name, &createdAt); err != nil {
			return nil, oops.Code("CANDIDATE_SCAN_FAILED").
				With("operation", "scan candidate").
				Wrap(err)
		}

		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("CANDIDATE_INVALID_ID").
				With("operation", "parse candidate id").
				With("id", idStr).
				Wrap(err)
		}

		candidates = append(candidates, &candidate.Candidate{
			ID:        id,
			Name:      name,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CANDIDATE_LIST_FAILED").
			With("operation", "iterate candidates").
			Wrap(err)
	}

	return candidates, nil
}

// Compile-time interface check.
var _ candidate.Repository = (*CandidateRepository)(nil)
