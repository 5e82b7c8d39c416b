// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Identity is the assertion carried by a verified access token.
type Identity struct {
	ID       ulid.ULID
	Username string
}

// AccessClaims is the access-token payload: principal ID (subject),
// username, issue and expiry timestamps.
type AccessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed, expiring credentials. Access and
// refresh tokens are signed with distinct keys so that a leaked key of one
// kind cannot forge the other.
type TokenIssuer interface {
	// IssueAccess mints a short-lived access token for the principal.
	IssueAccess(principal *Principal) (string, error)

	// IssueRefresh mints a long-lived refresh token for the principal.
	IssueRefresh(principal *Principal) (string, error)

	// VerifyAccess checks signature and expiry and returns the asserted
	// identity. Fails with TOKEN_EXPIRED or TOKEN_INVALID.
	VerifyAccess(token string) (*Identity, error)

	// VerifyRefresh checks signature and expiry and returns the principal
	// ID. Fails with TOKEN_EXPIRED or TOKEN_INVALID. Signature validity
	// alone does not make a refresh token usable; the Service additionally
	// compares it against the stored hash.
	VerifyRefresh(token string) (ulid.ULID, error)
}

// JWTIssuer implements TokenIssuer with HMAC-SHA256 signed JWTs.
type JWTIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// JWTIssuerOption configures a JWTIssuer.
type JWTIssuerOption func(*JWTIssuer)

// WithTokenTTLs overrides the default access and refresh lifetimes.
func WithTokenTTLs(access, refresh time.Duration) JWTIssuerOption {
	return func(i *JWTIssuer) {
		i.accessTTL = access
		i.refreshTTL = refresh
	}
}

// WithClock overrides the time source. Used in tests to exercise expiry
// without sleeping.
func WithClock(now func() time.Time) JWTIssuerOption {
	return func(i *JWTIssuer) {
		i.now = now
	}
}

// NewJWTIssuer creates a JWTIssuer. The two signing keys must be non-empty
// and distinct.
func NewJWTIssuer(accessKey, refreshKey []byte, opts ...JWTIssuerOption) (*JWTIssuer, error) {
	if len(accessKey) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("access signing key cannot be empty")
	}
	if len(refreshKey) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("refresh signing key cannot be empty")
	}
	if subtle.ConstantTimeCompare(accessKey, refreshKey) == 1 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("access and refresh signing keys must differ")
	}

	issuer := &JWTIssuer{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  AccessTokenTTL,
		refreshTTL: RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// IssueAccess mints a short-lived access token carrying the principal ID and
// username.
func (i *JWTIssuer) IssueAccess(principal *Principal) (string, error) {
	now := i.now()
	claims := AccessClaims{
		Username: principal.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessKey)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("kind", "access").
			Wrap(err)
	}
	return signed, nil
}

// IssueRefresh mints a long-lived refresh token carrying only the principal
// ID. The jti claim makes every token unique: iat/exp have one-second
// precision, and two logins inside the same second must still mint distinct
// tokens so the stored hash of the newer one revokes the older.
func (i *JWTIssuer) IssueRefresh(principal *Principal) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		ID:        ulid.Make().String(),
		Subject:   principal.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshKey)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("kind", "refresh").
			Wrap(err)
	}
	return signed, nil
}

// VerifyAccess checks signature and expiry and returns the asserted identity.
func (i *JWTIssuer) VerifyAccess(token string) (*Identity, error) {
	var claims AccessClaims
	if err := i.parse(token, &claims, i.accessKey, "access"); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID").
			With("kind", "access").
			Wrap(err)
	}

	return &Identity{ID: id, Username: claims.Username}, nil
}

// VerifyRefresh checks signature and expiry and returns the principal ID.
func (i *JWTIssuer) VerifyRefresh(token string) (ulid.ULID, error) {
	var claims jwt.RegisteredClaims
	if err := i.parse(token, &claims, i.refreshKey, "refresh"); err != nil {
		return ulid.ULID{}, err
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_INVALID").
			With("kind", "refresh").
			Wrap(err)
	}

	return id, nil
}

// parse validates signature and expiry into claims, mapping failures to
// TOKEN_EXPIRED or TOKEN_INVALID.
func (i *JWTIssuer) parse(token string, claims jwt.Claims, key []byte, kind string) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return oops.Code("TOKEN_EXPIRED").
				With("kind", kind).
				Wrap(err)
		}
		return oops.Code("TOKEN_INVALID").
			With("kind", kind).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)
