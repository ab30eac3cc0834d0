package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/database/schema"
	"github.com/taibuivan/libria/internal/platform/dberr"
	"github.com/taibuivan/libria/pkg/pagination"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// sortable maps client sort keys to catalog.book columns.
var sortable = map[string]string{
	"title":      schema.CatalogBook.Title,
	"created_at": schema.CatalogBook.CreatedAt,
	"available":  schema.CatalogBook.AvailableCopies,
}

func selectColumns() string {
	t := schema.CatalogBook
	return strings.Join([]string{
		t.ID, t.Title, t.Slug, t.Description, t.AuthorID, t.CategoryID, t.ISBN, t.CoverURL,
		t.Tags, t.TotalCopies, t.AvailableCopies, t.SearchableText, t.CreatedAt, t.UpdatedAt,
	}, ", ")
}

func (repository *PostgresRepository) ListBooks(context context.Context, f Filter, page pagination.Params) ([]*Book, int, error) {
	t := schema.CatalogBook

	conditions := []string{t.DeletedAt + " IS NULL"}
	args := []any{}

	if f.Query != "" {
		args = append(args, "%"+strings.ToLower(f.Query)+"%")
		conditions = append(conditions, fmt.Sprintf("%s LIKE $%d", t.SearchableText, len(args)))
	}
	if f.AuthorID != "" {
		args = append(args, f.AuthorID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", t.AuthorID, len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", t.CategoryID, len(args)))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		conditions = append(conditions, fmt.Sprintf("%s @> $%d", t.Tags, len(args)))
	}
	if f.AvailableOnly {
		conditions = append(conditions, t.AvailableCopies+" > 0")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, t.Table, where)
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_books")
	}

	orderBy := page.SortColumn(sortable, t.CreatedAt)
	direction := "DESC"
	if orderBy == t.Title {
		direction = "ASC"
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, selectColumns(), t.Table, where, orderBy, direction, len(args)-1, len(args))

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_books")
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_book")
		}
		books = append(books, b)
	}

	return books, total, nil
}

func (repository *PostgresRepository) GetBook(context context.Context, id string) (*Book, error) {
	return repository.getBy(context, schema.CatalogBook.ID, id)
}

func (repository *PostgresRepository) GetBookBySlug(context context.Context, slug string) (*Book, error) {
	return repository.getBy(context, schema.CatalogBook.Slug, slug)
}

func (repository *PostgresRepository) getBy(context context.Context, column, value string) (*Book, error) {
	t := schema.CatalogBook
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s IS NULL
	`, selectColumns(), t.Table, column, t.DeletedAt)

	b, err := scanBook(repository.db.QueryRow(context, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, "get_book")
	}
	return b, nil
}

func (repository *PostgresRepository) CreateBook(context context.Context, b *Book) error {
	t := schema.CatalogBook
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING %s, %s
	`,
		t.Table, t.ID, t.Title, t.Slug, t.Description, t.AuthorID, t.CategoryID, t.ISBN,
		t.CoverURL, t.Tags, t.TotalCopies, t.AvailableCopies, t.SearchableText,
		t.CreatedAt, t.UpdatedAt,
		t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		b.ID, b.Title, b.Slug, b.Description, b.AuthorID, b.CategoryID, b.ISBN,
		b.CoverURL, b.Tags, b.TotalCopies, b.AvailableCopies, b.SearchableText,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return dberr.Wrap(err, "create_book")
}

func (repository *PostgresRepository) UpdateBook(context context.Context, b *Book) error {
	t := schema.CatalogBook
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = $10, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s, %s, %s
	`,
		t.Table, t.Title, t.Slug, t.Description, t.AuthorID, t.CategoryID, t.ISBN,
		t.CoverURL, t.Tags, t.SearchableText, t.UpdatedAt,
		t.ID, t.DeletedAt,
		t.TotalCopies, t.AvailableCopies, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		b.ID, b.Title, b.Slug, b.Description, b.AuthorID, b.CategoryID, b.ISBN,
		b.CoverURL, b.Tags, b.SearchableText,
	).Scan(&b.TotalCopies, &b.AvailableCopies, &b.UpdatedAt)
	return dberr.Wrap(err, "update_book")
}

// SetTotalCopies applies the stock resize as one conditional UPDATE. The
// guard clause keeps the loaned-out count (total - available) under the new
// total, so the shelf count can never go negative.
func (repository *PostgresRepository) SetTotalCopies(context context.Context, id string, totalCopies int) (*Book, error) {
	t := schema.CatalogBook
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2,
		    %s = %s + ($2 - %s),
		    %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		  AND (%s - %s) <= $2
		RETURNING %s
	`,
		t.Table, t.TotalCopies,
		t.AvailableCopies, t.AvailableCopies, t.TotalCopies,
		t.UpdatedAt,
		t.ID, t.DeletedAt,
		t.TotalCopies, t.AvailableCopies,
		selectColumns(),
	)

	b, err := scanBook(repository.db.QueryRow(context, query, id, totalCopies))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, dberr.Wrap(err, "resize_stock")
		}
		// Zero rows: distinguish "book missing" from "too many copies on loan".
		if _, getErr := repository.GetBook(context, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.InvalidState("Cannot reduce stock below the number of copies on loan")
	}
	return b, nil
}

func (repository *PostgresRepository) DeleteBook(context context.Context, id string) error {
	t := schema.CatalogBook
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		t.Table, t.DeletedAt, t.ID, t.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_book")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (*Book, error) {
	b := &Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Description, &b.AuthorID, &b.CategoryID, &b.ISBN,
		&b.CoverURL, &b.Tags, &b.TotalCopies, &b.AvailableCopies, &b.SearchableText,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}
