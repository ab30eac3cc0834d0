package rating

import "context"

type Repository interface {
	// Upsert inserts the rating or overwrites the caller's previous one.
	Upsert(context context.Context, r *Rating) error
	GetOwn(context context.Context, userID, bookID string) (*Rating, error)
	ListForBook(context context.Context, bookID string, limit, offset int) ([]*Rating, int, error)
	Summarize(context context.Context, bookID string) (*Summary, error)
	DeleteOwn(context context.Context, userID, bookID string) error
}
