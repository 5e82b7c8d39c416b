// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// TokenPair is the result of a successful login: a short-lived access token
// returned to the caller and a long-lived refresh token delivered out of
// reach of script.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service orchestrates the session state machine: register, login, refresh,
// logout, and two-step TOTP enrollment. All collaborators are injected; the
// repository is the only shared mutable state.
type Service struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	totp       TOTPVerifier
	tokens     TokenIssuer
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service. All dependencies are required.
func NewService(principals PrincipalRepository, hasher PasswordHasher, totp TOTPVerifier, tokens TokenIssuer, logger *slog.Logger) (*Service, error) {
	if principals == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if totp == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("totp verifier is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("logger is required")
	}
	return &Service{
		principals: principals,
		hasher:     hasher,
		totp:       totp,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// dummyPasswordHash is used when a principal doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake hash that will
// never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a new principal from a username and password.
// Fails with AUTH_MISSING_FIELDS on empty input and AUTH_DUPLICATE_USERNAME
// when the name is taken. Usernames carry no format constraints.
func (s *Service) Register(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, oops.Code("AUTH_MISSING_FIELDS").Errorf("username and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	principal, err := NewPrincipal(username, hash)
	if err != nil {
		return nil, err
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, oops.Code("AUTH_DUPLICATE_USERNAME").
				With("username", username).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create principal").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal registered",
		"principal_id", principal.ID.String(),
		"username", username)

	return principal, nil
}

// Login authenticates a principal by password and, when enrolled, a TOTP
// code, then issues an access/refresh token pair. The refresh token's hash
// replaces any previously stored one, implicitly revoking the prior session.
//
// Unknown usernames and wrong passwords fail identically with
// AUTH_INVALID_CREDENTIALS; verification runs against a dummy hash when the
// principal is absent to keep response time consistent.
func (s *Service) Login(ctx context.Context, username, password, totpCode string) (*TokenPair, error) {
	principal, lookupErr := s.principals.GetByUsername(ctx, username)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	exists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get principal by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = principal.PasswordHash
		exists = true
	}

	// Always verify the password so absent and present principals take the
	// same path.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
	}

	// Second factor, only once the password is known good.
	if principal.TOTPEnrolled() {
		if !s.totp.VerifyCode(*principal.TOTPSecret, totpCode, s.now()) {
			return nil, oops.Code("AUTH_INVALID_TOTP").Errorf("invalid 2fa code")
		}
	}

	accessToken, err := s.tokens.IssueAccess(principal)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	refreshToken, err := s.tokens.IssueRefresh(principal)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue refresh token").
			Wrap(err)
	}

	// Only a hash of the refresh token is persisted; the single slot makes
	// the prior session's token unusable from here on.
	refreshHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "hash refresh token").
			Wrap(err)
	}

	if err := s.principals.SetRefreshHash(ctx, principal.ID, &refreshHash); err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "persist refresh hash").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal logged in",
		"principal_id", principal.ID.String(),
		"username", username,
		"second_factor", principal.TOTPEnrolled())

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh mints a new access token for a refresh token that passes both
// signature/expiry verification and the stored-hash comparison. A token that
// verifies but misses the stored hash is revoked (AUTH_SESSION_REVOKED), not
// malformed. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_SESSION_REVOKED").Errorf("no active session")
		}
		return "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get principal by id").
			Wrap(err)
	}

	if principal.RefreshHash == nil {
		return "", oops.Code("AUTH_SESSION_REVOKED").Errorf("no active session")
	}

	match, err := s.hasher.Verify(refreshToken, *principal.RefreshHash)
	if err != nil {
		return "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "compare refresh hash").
			Wrap(err)
	}
	if !match {
		return "", oops.Code("AUTH_SESSION_REVOKED").Errorf("refresh token superseded or revoked")
	}

	accessToken, err := s.tokens.IssueAccess(principal)
	if err != nil {
		return "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		"principal_id", principal.ID.String())

	return accessToken, nil
}

// Logout revokes the session the refresh token belongs to. Unverifiable
// tokens and already-cleared sessions are success, not errors; logging out
// twice is defined behavior. Only a store failure is reported.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		// Forged or expired tokens identify no session to clear.
		return nil
	}

	if err := s.principals.SetRefreshHash(ctx, id, nil); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "clear refresh hash").
			With("principal_id", id.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal logged out", "principal_id", id.String())
	return nil
}

// Setup2FA generates a fresh TOTP secret for the account without persisting
// it. Enrollment completes in Confirm2FA once the client proves it holds a
// working authenticator.
func (s *Service) Setup2FA(account string) (string, error) {
	return s.totp.GenerateSecret(account)
}

// Confirm2FA verifies a code against the client-returned secret and persists
// the secret on success. A rejected code leaves the principal unchanged.
func (s *Service) Confirm2FA(ctx context.Context, identity *Identity, secret, code string) error {
	if secret == "" || code == "" {
		return oops.Code("AUTH_INVALID_TOTP").Errorf("secret and code are required")
	}

	if !s.totp.VerifyCode(secret, code, s.now()) {
		return oops.Code("AUTH_INVALID_TOTP").Errorf("invalid 2fa code")
	}

	if err := s.principals.SetTOTPSecret(ctx, identity.ID, secret); err != nil {
		return oops.Code("AUTH_ENROLL_FAILED").
			With("operation", "persist totp secret").
			With("principal_id", identity.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "second factor enrolled",
		"principal_id", identity.ID.String(),
		"username", identity.Username)

	return nil
}

// Authenticate verifies an access token and returns the asserted identity.
// An access token never suffices to mutate session state; it only proves
// recent authentication.
func (s *Service) Authenticate(token string) (*Identity, error) {
	return s.tokens.VerifyAccess(token)
}
