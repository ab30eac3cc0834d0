// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libria/internal/platform/dberr"
	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/pkg/pagination"
)

// PostgresRepository implements [Repository] on top of users.account.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `
	id, email, passwordhash, firstname, lastname, membership, role, status,
	isverified, totalborrowed, currentloans, totalfinecents, owedfinecents,
	searchabletext, lastloginat, createdat, updatedat`

// sortable maps client sort keys to users.account columns.
var sortable = map[string]string{
	"created_at": "createdat",
	"email":      "email",
	"last_name":  "lastname",
}

// List implements [Repository].
func (repo *PostgresRepository) List(context context.Context, filter ListFilter, page pagination.Params) ([]*auth.User, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("searchabletext LIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM users.account WHERE ` + where
	if err := repo.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count users")
	}

	orderBy := page.SortColumn(sortable, "createdat")
	args = append(args, page.Limit, page.Offset())
	listQuery := fmt.Sprintf(
		`SELECT %s FROM users.account WHERE %s ORDER BY %s DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, orderBy, len(args)-1, len(args),
	)

	rows, err := repo.pool.Query(context, listQuery, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list users")
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate users")
	}

	return users, total, nil
}

// FindByID implements [Repository]. Returns nil when no row matched.
func (repo *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`
	row := repo.pool.QueryRow(context, query, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "find user")
	}
	return user, nil
}

// UpdateProfile implements [Repository]. The caller has already merged the
// update into the entity and rebuilt the searchable text.
func (repo *PostgresRepository) UpdateProfile(context context.Context, user *auth.User) error {
	query := `
		UPDATE users.account
		SET firstname = $2, lastname = $3, membership = $4, searchabletext = $5, updatedat = now()
		WHERE id = $1`

	_, err := repo.pool.Exec(context, query,
		user.ID, user.FirstName, user.LastName, user.Membership, user.SearchableText,
	)
	if err != nil {
		return dberr.Wrap(err, "update user profile")
	}
	return nil
}

// SetRole implements [Repository].
func (repo *PostgresRepository) SetRole(context context.Context, userID string, role string) error {
	query := `UPDATE users.account SET role = $2, updatedat = now() WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, userID, role); err != nil {
		return dberr.Wrap(err, "set user role")
	}
	return nil
}

// SetStatus implements [Repository].
func (repo *PostgresRepository) SetStatus(context context.Context, userID string, status string) error {
	query := `UPDATE users.account SET status = $2, updatedat = now() WHERE id = $1`
	if _, err := repo.pool.Exec(context, query, userID, status); err != nil {
		return dberr.Wrap(err, "set user status")
	}
	return nil
}

// scanUser maps one users.account row onto the domain entity.
func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Membership, &user.Role, &user.Status, &user.IsVerified,
		&user.TotalBorrowed, &user.CurrentLoans, &user.TotalFineCents, &user.OwedFineCents,
		&user.SearchableText, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
