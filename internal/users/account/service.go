// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/platform/validate"
	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/pointer"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

/*
Service implements profile self-service and administrative user management.
*/
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the account service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// # Self Service

/*
Profile returns the caller's own user record.
*/
func (service *Service) Profile(context context.Context, userID string) (*auth.User, error) {
	if !uuidv7.IsValid(userID) {
		return nil, apperr.NotFound("User")
	}

	user, err := service.repo.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_profile_lookup_failed: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

/*
UpdateProfile applies a partial update to the caller's own record.

Only name and membership are self-serviceable; role, status, and the
circulation counters are off limits here.
*/
func (service *Service) UpdateProfile(context context.Context, userID string, update ProfileUpdate) (*auth.User, error) {
	user, err := service.Profile(context, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = pointer.Fallback(update.FirstName, user.FirstName)
	user.LastName = pointer.Fallback(update.LastName, user.LastName)
	user.Membership = auth.MembershipType(pointer.Fallback(update.Membership, string(user.Membership)))

	v := &validate.Validator{}
	v.Required(auth.FieldFirstName, user.FirstName).MaxLen(auth.FieldFirstName, user.FirstName, 100)
	v.Required(auth.FieldLastName, user.LastName).MaxLen(auth.FieldLastName, user.LastName, 100)
	v.OneOf(auth.FieldMembership, string(user.Membership), auth.MembershipTypes...)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user.SearchableText = auth.BuildSearchableText(user.Email, user.FirstName, user.LastName)

	if err := service.repo.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_profile_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "profile_updated", slog.String("user_id", userID))
	return user, nil
}

// # Administration

/*
List returns a page of users for the administrative console.
*/
func (service *Service) List(context context.Context, filter ListFilter, page pagination.Params) ([]*auth.User, pagination.Meta, error) {
	if filter.Status != "" {
		v := &validate.Validator{}
		v.OneOf(auth.FieldStatus, filter.Status, auth.AccountStatuses...)
		if err := v.Err(); err != nil {
			return nil, pagination.Meta{}, err
		}
	}

	users, total, err := service.repo.List(context, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_list_failed: %w", err)
	}
	return users, pagination.NewMeta(page.Page, page.Limit, total), nil
}

/*
Get returns one user by id for the administrative console.
*/
func (service *Service) Get(context context.Context, userID string) (*auth.User, error) {
	return service.Profile(context, userID)
}

/*
SetRole changes a user's role.

A caller may never touch an account whose role outranks their own, and may
not grant a role above their own. This keeps librarian accounts from
minting admins.
*/
func (service *Service) SetRole(context context.Context, actor *sec.Principal, userID string, role string) (*auth.User, error) {
	newRole := sec.Role(role)

	v := &validate.Validator{}
	v.OneOf("role", role,
		string(sec.RoleMember), string(sec.RoleLibrarian), string(sec.RoleAdmin), string(sec.RoleSuperAdmin))
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.Profile(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Role.AtLeast(actor.Role) && actor.UserID != user.ID {
		return nil, apperr.Forbidden("Cannot modify an account of equal or higher rank")
	}
	if newRole.AtLeast(actor.Role) {
		return nil, apperr.Forbidden("Cannot grant a role at or above your own")
	}

	if err := service.repo.SetRole(context, userID, role); err != nil {
		return nil, fmt.Errorf("account_set_role_failed: %w", err)
	}
	user.Role = newRole

	service.logger.InfoContext(context, "user_role_changed",
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("actor_id", actor.UserID),
	)
	return user, nil
}

/*
SetStatus changes a user's account status (active, inactive, suspended).

Suspending an account does not revoke its sessions here; the session
provider refuses to resolve tokens for non-active accounts, so the lockout
is immediate anyway.
*/
func (service *Service) SetStatus(context context.Context, actor *sec.Principal, userID string, status string) (*auth.User, error) {
	v := &validate.Validator{}
	v.OneOf(auth.FieldStatus, status, auth.AccountStatuses...)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.Profile(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Role.AtLeast(actor.Role) && actor.UserID != user.ID {
		return nil, apperr.Forbidden("Cannot modify an account of equal or higher rank")
	}

	if err := service.repo.SetStatus(context, userID, status); err != nil {
		return nil, fmt.Errorf("account_set_status_failed: %w", err)
	}
	user.Status = auth.AccountStatus(status)

	service.logger.InfoContext(context, "user_status_changed",
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("actor_id", actor.UserID),
	)
	return user, nil
}
