// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Repository Contracts

/*
UserRepository defines the persistence contract for user accounts.

Implementations must treat email lookups as case-insensitive; callers
normalize through NormalizeEmail before every call.
*/
type UserRepository interface {
	/*
		Create persists a new user account.

		Parameters:
		  - context: The request context.
		  - user: The fully populated user entity (ID and hashes already set).

		Returns:
		  - error: A conflict error when the email is already registered.
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID retrieves a user by primary key.

		Returns:
		  - *User: The user, or nil when no row matched.
		  - error: A database error, if any occurred.
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail retrieves a user by normalized email address.

		Returns:
		  - *User: The user, or nil when no row matched.
		  - error: A database error, if any occurred.
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		UpdatePassword replaces the stored password hash for a user.
	*/
	UpdatePassword(context context.Context, userID string, passwordHash string) error

	/*
		UpdateLastLogin stamps the most recent successful login.
	*/
	UpdateLastLogin(context context.Context, userID string, at time.Time) error

	/*
		MarkVerified flips the email verification flag for a user.
	*/
	MarkVerified(context context.Context, userID string) error
}

/*
SessionRepository defines the persistence contract for bearer-token sessions.

Only token digests are stored; the raw token never reaches this layer.
*/
type SessionRepository interface {
	/*
		Create persists a new session row.
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash retrieves a session by its token digest.

		The lookup must not filter on expiry: the service layer decides what to
		do with an expired row (it deletes it).

		Returns:
		  - *Session: The session, or nil when no row matched.
		  - error: A database error, if any occurred.
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Touch updates the last-used timestamp of a session.
	*/
	Touch(context context.Context, sessionID string, at time.Time) error

	/*
		Delete removes a single session row. Deleting a missing row is not an error.
	*/
	Delete(context context.Context, sessionID string) error

	/*
		DeleteByTokenHash removes the session matching a token digest, if any.
	*/
	DeleteByTokenHash(context context.Context, tokenHash string) error

	/*
		DeleteAllForUser revokes every session belonging to a user.

		Returns:
		  - int64: The number of sessions removed.
	*/
	DeleteAllForUser(context context.Context, userID string) (int64, error)

	/*
		DeleteExpired removes every session past its expiry. Used by the
		operational CLI; the API process relies on lazy deletion instead.

		Returns:
		  - int64: The number of sessions removed.
	*/
	DeleteExpired(context context.Context, now time.Time) (int64, error)
}

/*
ResetTokenRepository stores short-lived password reset tokens keyed by digest.
*/
type ResetTokenRepository interface {
	// Save stores a reset token digest mapped to a user id, with a TTL.
	Save(context context.Context, tokenHash string, userID string, ttl time.Duration) error

	// Consume retrieves and deletes the user id for a token digest in one step.
	// Returns an empty string when the token is unknown or expired.
	Consume(context context.Context, tokenHash string) (string, error)
}

/*
VerificationTokenRepository stores email verification tokens keyed by digest.
*/
type VerificationTokenRepository interface {
	// Save stores a verification token digest mapped to a user id, with a TTL.
	Save(context context.Context, tokenHash string, userID string, ttl time.Duration) error

	// Consume retrieves and deletes the user id for a token digest in one step.
	// Returns an empty string when the token is unknown or expired.
	Consume(context context.Context, tokenHash string) (string, error)
}
