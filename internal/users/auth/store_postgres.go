// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libria/internal/platform/dberr"
)

// # User Repository (PostgreSQL)

// PostgresUserRepository implements [UserRepository] on top of users.account.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository constructs the repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userColumns is the canonical select list for users.account rows.
const userColumns = `
	id, email, passwordhash, firstname, lastname, membership, role, status,
	isverified, totalborrowed, currentloans, totalfinecents, owedfinecents,
	searchabletext, lastloginat, createdat, updatedat`

// Create implements [UserRepository].
func (repo *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := `
		INSERT INTO users.account (
			id, email, passwordhash, firstname, lastname, membership, role, status,
			isverified, searchabletext, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := repo.pool.Exec(context, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Membership, user.Role, user.Status, user.IsVerified,
		user.SearchableText, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create user")
	}
	return nil
}

// FindByID implements [UserRepository]. Returns nil when no row matched.
func (repo *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`
	return repo.queryOne(context, query, id)
}

// FindByEmail implements [UserRepository]. Returns nil when no row matched.
// Callers normalize the email beforehand; the column stores lower case only.
func (repo *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1`
	return repo.queryOne(context, query, email)
}

// UpdatePassword implements [UserRepository].
func (repo *PostgresUserRepository) UpdatePassword(context context.Context, userID string, passwordHash string) error {
	query := `UPDATE users.account SET passwordhash = $2, updatedat = now() WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, userID, passwordHash); err != nil {
		return dberr.Wrap(err, "update user password")
	}
	return nil
}

// UpdateLastLogin implements [UserRepository].
func (repo *PostgresUserRepository) UpdateLastLogin(context context.Context, userID string, at time.Time) error {
	query := `UPDATE users.account SET lastloginat = $2 WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, userID, at); err != nil {
		return dberr.Wrap(err, "update user last login")
	}
	return nil
}

// MarkVerified implements [UserRepository].
func (repo *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	query := `UPDATE users.account SET isverified = TRUE, updatedat = now() WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, userID); err != nil {
		return dberr.Wrap(err, "mark user verified")
	}
	return nil
}

// queryOne runs a single-row user query, translating no-rows into nil.
func (repo *PostgresUserRepository) queryOne(context context.Context, query string, args ...any) (*User, error) {
	row := repo.pool.QueryRow(context, query, args...)

	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Membership, &user.Role, &user.Status, &user.IsVerified,
		&user.TotalBorrowed, &user.CurrentLoans, &user.TotalFineCents, &user.OwedFineCents,
		&user.SearchableText, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "find user")
	}
	return &user, nil
}

// # Session Repository (PostgreSQL)

// PostgresSessionRepository implements [SessionRepository] on top of users.session.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository constructs the repository.
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create implements [SessionRepository].
func (repo *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	query := `
		INSERT INTO users.session (id, userid, tokenhash, expiresat, createdat, lastusedat)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.pool.Exec(context, query,
		session.ID, session.UserID, session.TokenHash,
		session.ExpiresAt, session.CreatedAt, session.LastUsedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create session")
	}
	return nil
}

// FindByTokenHash implements [SessionRepository]. The query intentionally
// carries no expiry predicate: the service inspects and reaps expired rows.
func (repo *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, userid, tokenhash, expiresat, createdat, lastusedat
		FROM users.session
		WHERE tokenhash = $1`

	var session Session
	err := repo.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.ExpiresAt, &session.CreatedAt, &session.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "find session by token")
	}
	return &session, nil
}

// Touch implements [SessionRepository].
func (repo *PostgresSessionRepository) Touch(context context.Context, sessionID string, at time.Time) error {
	query := `UPDATE users.session SET lastusedat = $2 WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, sessionID, at); err != nil {
		return dberr.Wrap(err, "touch session")
	}
	return nil
}

// Delete implements [SessionRepository].
func (repo *PostgresSessionRepository) Delete(context context.Context, sessionID string) error {
	query := `DELETE FROM users.session WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, sessionID); err != nil {
		return dberr.Wrap(err, "delete session")
	}
	return nil
}

// DeleteByTokenHash implements [SessionRepository].
func (repo *PostgresSessionRepository) DeleteByTokenHash(context context.Context, tokenHash string) error {
	query := `DELETE FROM users.session WHERE tokenhash = $1`
	if _, err := repo.pool.Exec(context, query, tokenHash); err != nil {
		return dberr.Wrap(err, "delete session by token")
	}
	return nil
}

// DeleteAllForUser implements [SessionRepository].
func (repo *PostgresSessionRepository) DeleteAllForUser(context context.Context, userID string) (int64, error) {
	query := `DELETE FROM users.session WHERE userid = $1`
	tag, err := repo.pool.Exec(context, query, userID)
	if err != nil {
		return 0, dberr.Wrap(err, "delete sessions for user")
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired implements [SessionRepository].
func (repo *PostgresSessionRepository) DeleteExpired(context context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM users.session WHERE expiresat <= $1`
	tag, err := repo.pool.Exec(context, query, now)
	if err != nil {
		return 0, dberr.Wrap(err, "delete expired sessions")
	}
	return tag.RowsAffected(), nil
}
