package category

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/libria/internal/platform/database/schema"
	"github.com/taibuivan/libria/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListCategories(context context.Context) ([]*Category, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s IS NULL
		ORDER BY %s ASC
	`,
		schema.CatalogCategory.ID, schema.CatalogCategory.Name, schema.CatalogCategory.Slug,
		schema.CatalogCategory.Description, schema.CatalogCategory.CreatedAt, schema.CatalogCategory.UpdatedAt,
		schema.CatalogCategory.Table, schema.CatalogCategory.DeletedAt, schema.CatalogCategory.Name,
	)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, c)
	}

	return categories, nil
}

func (repository *PostgresRepository) GetCategory(context context.Context, id string) (*Category, error) {
	return repository.getBy(context, schema.CatalogCategory.ID, id)
}

func (repository *PostgresRepository) GetCategoryBySlug(context context.Context, slug string) (*Category, error) {
	return repository.getBy(context, schema.CatalogCategory.Slug, slug)
}

func (repository *PostgresRepository) getBy(context context.Context, column, value string) (*Category, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL
	`,
		schema.CatalogCategory.ID, schema.CatalogCategory.Name, schema.CatalogCategory.Slug,
		schema.CatalogCategory.Description, schema.CatalogCategory.CreatedAt, schema.CatalogCategory.UpdatedAt,
		schema.CatalogCategory.Table, column, schema.CatalogCategory.DeletedAt,
	)

	c := &Category{}
	err := repository.db.QueryRow(context, query, value).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_category")
	}

	return c, nil
}

func (repository *PostgresRepository) CreateCategory(context context.Context, c *Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.CatalogCategory.Table, schema.CatalogCategory.ID, schema.CatalogCategory.Name,
		schema.CatalogCategory.Slug, schema.CatalogCategory.Description,
		schema.CatalogCategory.CreatedAt, schema.CatalogCategory.UpdatedAt,
		schema.CatalogCategory.CreatedAt, schema.CatalogCategory.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, c.ID, c.Name, c.Slug, c.Description).Scan(&c.CreatedAt, &c.UpdatedAt)
	return dberr.Wrap(err, "create_category")
}

func (repository *PostgresRepository) UpdateCategory(context context.Context, c *Category) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		schema.CatalogCategory.Table, schema.CatalogCategory.Name, schema.CatalogCategory.Slug,
		schema.CatalogCategory.Description, schema.CatalogCategory.UpdatedAt,
		schema.CatalogCategory.ID, schema.CatalogCategory.DeletedAt,
		schema.CatalogCategory.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, c.ID, c.Name, c.Slug, c.Description).Scan(&c.UpdatedAt)
	return dberr.Wrap(err, "update_category")
}

func (repository *PostgresRepository) DeleteCategory(context context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.CatalogCategory.Table, schema.CatalogCategory.DeletedAt, schema.CatalogCategory.ID, schema.CatalogCategory.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_category")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
