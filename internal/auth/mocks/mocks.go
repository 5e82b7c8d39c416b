// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// MockPrincipalRepository mocks auth.PrincipalRepository.
type MockPrincipalRepository struct {
	mock.Mock
}

// NewMockPrincipalRepository creates a MockPrincipalRepository whose
// expectations are asserted on test cleanup.
func NewMockPrincipalRepository(t *testing.T) *MockPrincipalRepository {
	t.Helper()
	m := &MockPrincipalRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPrincipalRepository) Create(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *MockPrincipalRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Principal, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalRepository) GetByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	args := m.Called(ctx, username)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalRepository) SetRefreshHash(ctx context.Context, id ulid.ULID, hash *string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockPrincipalRepository) SetTOTPSecret(ctx context.Context, id ulid.ULID, secret string) error {
	args := m.Called(ctx, id, secret)
	return args.Error(0)
}

// MockPasswordHasher mocks auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted on test cleanup.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	t.Helper()
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(plaintext, hash string) (bool, error) {
	args := m.Called(plaintext, hash)
	return args.Bool(0), args.Error(1)
}

// MockTOTPVerifier mocks auth.TOTPVerifier.
type MockTOTPVerifier struct {
	mock.Mock
}

// NewMockTOTPVerifier creates a MockTOTPVerifier whose expectations are
// asserted on test cleanup.
func NewMockTOTPVerifier(t *testing.T) *MockTOTPVerifier {
	t.Helper()
	m := &MockTOTPVerifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTOTPVerifier) GenerateSecret(account string) (string, error) {
	args := m.Called(account)
	return args.String(0), args.Error(1)
}

func (m *MockTOTPVerifier) VerifyCode(secret, code string, at time.Time) bool {
	args := m.Called(secret, code, at)
	return args.Bool(0)
}

// MockTokenIssuer mocks auth.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a MockTokenIssuer whose expectations are
// asserted on test cleanup.
func NewMockTokenIssuer(t *testing.T) *MockTokenIssuer {
	t.Helper()
	m := &MockTokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenIssuer) IssueAccess(principal *auth.Principal) (string, error) {
	args := m.Called(principal)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) IssueRefresh(principal *auth.Principal) (string, error) {
	args := m.Called(principal)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) VerifyAccess(token string) (*auth.Identity, error) {
	args := m.Called(token)
	if id := args.Get(0); id != nil {
		return id.(*auth.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenIssuer) VerifyRefresh(token string) (ulid.ULID, error) {
	args := m.Called(token)
	return args.Get(0).(ulid.ULID), args.Error(1)
}

// Compile-time interface checks.
var (
	_ auth.PrincipalRepository = (*MockPrincipalRepository)(nil)
	_ auth.PasswordHasher      = (*MockPasswordHasher)(nil)
	_ auth.TOTPVerifier        = (*MockTOTPVerifier)(nil)
	_ auth.TokenIssuer         = (*MockTokenIssuer)(nil)
)
