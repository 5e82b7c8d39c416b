// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides testify mocks for the candidate package interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/candidate"
)

// MockRepository mocks candidate.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository whose expectations are asserted
// on test cleanup.
func NewMockRepository(t *testing.T) *MockRepository {
	t.Helper()
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) Create(ctx context.Context, c *candidate.Candidate) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]*candidate.Candidate, error) {
	args := m.Called(ctx)
	if cs := args.Get(0); cs != nil {
		return cs.([]*candidate.Candidate), args.Error(1)
	}
	return nil, args.Error(1)
}

// Compile-time interface check.
var _ candidate.Repository = (*MockRepository)(nil)
