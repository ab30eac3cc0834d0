// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements profile self-service and administrative user
management on top of the auth domain's user entity.

Separation from package auth is deliberate: auth owns credentials and
sessions, account owns everything about the user record that is not a
credential.
*/
package account

import (
	"context"

	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/pkg/pagination"
)

// ProfileUpdate carries the mutable self-service fields. Nil means "leave as is".
type ProfileUpdate struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Membership *string `json:"membership"`
}

// ListFilter narrows the administrative user listing.
type ListFilter struct {
	// Search matches against the denormalized searchable text (name, email).
	Search string
	// Status restricts to one account status when set.
	Status string
	// Role restricts to one role when set.
	Role string
}

/*
Repository defines the persistence contract for user administration.

It deliberately has no Create: account rows are born in the auth domain
(registration) or the identity domain (JIT provisioning), never here.
*/
type Repository interface {
	/*
		List returns a page of users matching the filter, newest first.

		Returns:
		  - []*auth.User: The page of users.
		  - int: The total number of matches across all pages.
		  - error: A database error, if any occurred.
	*/
	List(context context.Context, filter ListFilter, page pagination.Params) ([]*auth.User, int, error)

	/*
		FindByID retrieves a user by primary key, or nil when no row matched.
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateProfile applies the non-nil fields of a profile update and
		refreshes the searchable text.
	*/
	UpdateProfile(context context.Context, user *auth.User) error

	/*
		SetRole replaces a user's role.
	*/
	SetRole(context context.Context, userID string, role string) error

	/*
		SetStatus replaces a user's account status.
	*/
	SetStatus(context context.Context, userID string, status string) error
}
