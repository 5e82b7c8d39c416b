// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"context"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// refreshCookie builds the session cookie. HttpOnly keeps the token out of
// reach of script; SameSite=Strict keeps it off cross-site requests.
func refreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.RefreshTokenTTL.Seconds()),
	}
}

// clearedRefreshCookie expires the session cookie with the same attributes it
// was set with.
func clearedRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	}
}

// withIdentity stores the authenticated identity on the request context.
func withIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// identityFrom returns the identity placed by requireBearer. Only reachable
// from handlers behind that middleware.
func identityFrom(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityContextKey{}).(*auth.Identity)
	return identity
}
