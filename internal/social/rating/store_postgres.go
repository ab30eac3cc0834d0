package rating

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

// Upsert relies on the (userid, bookid) unique constraint: a conflict turns
// the insert into an update of score and review, keeping the original id
// and creation time.
func (repository *PostgresRepository) Upsert(context context.Context, r *Rating) error {
	t := schema.SocialRating
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (%s, %s) DO UPDATE
		SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = NOW()
		RETURNING %s, %s, %s
	`,
		t.Table, t.ID, t.UserID, t.BookID, t.Score, t.Review, t.CreatedAt, t.UpdatedAt,
		t.UserID, t.BookID,
		t.Score, t.Score, t.Review, t.Review, t.UpdatedAt,
		t.ID, t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, r.ID, r.UserID, r.BookID, r.Score, r.Review).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return dberr.Wrap(err, "upsert_rating")
}

func (repository *PostgresRepository) GetOwn(context context.Context, userID, bookID string) (*Rating, error) {
	t := schema.SocialRating
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
	`,
		t.ID, t.UserID, t.BookID, t.Score, t.Review, t.CreatedAt, t.UpdatedAt,
		t.Table, t.UserID, t.BookID,
	)

	r := &Rating{}
	err := repository.db.QueryRow(context, query, userID, bookID).Scan(
		&r.ID, &r.UserID, &r.BookID, &r.Score, &r.Review, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_own_rating")
	}
	return r, nil
}

func (repository *PostgresRepository) ListForBook(context context.Context, bookID string, limit, offset int) ([]*Rating, int, error) {
	t := schema.SocialRating

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, t.Table, t.BookID)
	if err := repository.db.QueryRow(context, countQuery, bookID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_ratings")
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3
	`,
		t.ID, t.UserID, t.BookID, t.Score, t.Review, t.CreatedAt, t.UpdatedAt,
		t.Table, t.BookID, t.UpdatedAt,
	)

	rows, err := repository.db.Query(context, query, bookID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_ratings")
	}
	defer rows.Close()

	var ratings []*Rating
	for rows.Next() {
		r := &Rating{}
		if err := rows.Scan(&r.ID, &r.UserID, &r.BookID, &r.Score, &r.Review, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_rating")
		}
		ratings = append(ratings, r)
	}

	return ratings, total, nil
}

func (repository *PostgresRepository) Summarize(context context.Context, bookID string) (*Summary, error) {
	t := schema.SocialRating
	query := fmt.Sprintf(
		`SELECT COALESCE(AVG(%s), 0), count(*) FROM %s WHERE %s = $1`,
		t.Score, t.Table, t.BookID,
	)

	summary := &Summary{BookID: bookID}
	err := repository.db.QueryRow(context, query, bookID).Scan(&summary.AverageScore, &summary.RatingsCount)
	if err != nil {
		return nil, dberr.Wrap(err, "summarize_ratings")
	}
	return summary, nil
}

func (repository *PostgresRepository) DeleteOwn(context context.Context, userID, bookID string) error {
	t := schema.SocialRating
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, t.Table, t.UserID, t.BookID)

	cmd, err := repository.db.Exec(context, query, userID, bookID)
	if err != nil {
		return dberr.Wrap(err, "delete_rating")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
