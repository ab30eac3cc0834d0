package book

import (
	"context"

	"github.com/taibuivan/libria/pkg/pagination"
)

type Repository interface {
	ListBooks(context context.Context, f Filter, page pagination.Params) ([]*Book, int, error)
	GetBook(context context.Context, id string) (*Book, error)
	GetBookBySlug(context context.Context, slug string) (*Book, error)
	CreateBook(context context.Context, b *Book) error
	UpdateBook(context context.Context, b *Book) error
	// SetTotalCopies resizes the owned stock, shifting the shelf count by the
	// same delta. Fails with an invalid-state error when the new total is
	// smaller than the number of copies currently on loan.
	SetTotalCopies(context context.Context, id string, totalCopies int) (*Book, error)
	DeleteBook(context context.Context, id string) error
}
