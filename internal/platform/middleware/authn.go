// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/ctxutil"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/internal/platform/sec"
)

// Resolver turns a bearer token into an authenticated principal.
//
// # Why a function type?
//
// Two interchangeable implementations exist: the session service (opaque
// DB-backed tokens, instant revocation) and the identity provider (externally
// issued RS256 JWTs, no DB hit). A deployment wires exactly one of them; the
// middleware and every downstream handler are oblivious to the choice.
type Resolver func(r *http.Request, token string) (*sec.Principal, error)

// Authenticate extracts and resolves the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous.
//  3. If present, resolve the token into a [*sec.Principal].
//  4. Inject the principal into the request context for downstream use.
//
// A present-but-unresolvable token is rejected immediately: silently
// downgrading a bad credential to anonymous would mask client bugs.
func Authenticate(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Resolution ───────────────────────────────────────────
			principal, err := resolve(request, parts[1])
			if err != nil || principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
