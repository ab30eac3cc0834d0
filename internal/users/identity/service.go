// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity implements the alternative, stateless authentication
provider: RS256 identity tokens minted by an external issuer.

Deployments choose between this provider and the database-backed session
provider through configuration. Both resolve bearer tokens to the same
normalized [sec.Principal], so nothing downstream can tell them apart.
*/
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

// Service resolves RS256 identity tokens and provisions local user rows
// for externally managed identities on first sight.
type Service struct {
	tokens *sec.TokenService
	users  auth.UserRepository
	logger *slog.Logger
}

// NewService constructs the identity provider service.
func NewService(tokens *sec.TokenService, users auth.UserRepository, logger *slog.Logger) *Service {
	return &Service{tokens: tokens, users: users, logger: logger}
}

/*
ResolveToken verifies an identity token and returns the caller's principal.

The signature, expiry, and issuer are checked cryptographically; no
database round-trip is needed for the identity itself. A local user row is
provisioned just-in-time so that circulation and ratings always have a
user to reference.
*/
func (service *Service) ResolveToken(context context.Context, token string) (*sec.Principal, error) {
	claims, err := service.tokens.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	if err := service.ensureLocalUser(context, claims); err != nil {
		return nil, err
	}

	return &sec.Principal{
		UserID: claims.UserID,
		Email:  auth.NormalizeEmail(claims.Email),
		Role:   sec.Role(claims.Role),
	}, nil
}

// ensureLocalUser provisions a minimal user row for an external identity
// the first time it is seen. Provisioned rows carry no password hash, so
// the credential login path can never match them.
func (service *Service) ensureLocalUser(context context.Context, claims *sec.IdentityClaims) error {
	existing, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		return fmt.Errorf("identity_user_lookup_failed: %w", err)
	}
	if existing != nil {
		return nil
	}

	email := auth.NormalizeEmail(claims.Email)
	now := time.Now().UTC()
	user := &auth.User{
		ID:             claims.UserID,
		Email:          email,
		FirstName:      "",
		LastName:       "",
		Membership:     auth.MembershipRegular,
		Role:           sec.Role(claims.Role),
		Status:         auth.StatusActive,
		IsVerified:     true, // The external issuer owns email verification.
		SearchableText: auth.BuildSearchableText(email, "", ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if user.ID == "" {
		user.ID = uuidv7.New()
	}

	if err := service.users.Create(context, user); err != nil {
		// Concurrent first requests race to provision. Losing the race is fine.
		if app := apperr.As(err); app != nil && app.Code == "CONFLICT" {
			return nil
		}
		return fmt.Errorf("identity_user_provision_failed: %w", err)
	}

	service.logger.InfoContext(context, "identity_user_provisioned", slog.String("user_id", user.ID))
	return nil
}
