package book

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libria/internal/platform/validate"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/slug"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListBooks(context context.Context, filter Filter, page pagination.Params) ([]*Book, int, error) {
	return service.repo.ListBooks(context, filter, page)
}

func (service *Service) GetBook(context context.Context, id string) (*Book, error) {
	return service.repo.GetBook(context, id)
}

func (service *Service) GetBookBySlug(context context.Context, bookSlug string) (*Book, error) {
	return service.repo.GetBookBySlug(context, bookSlug)
}

func (service *Service) CreateBook(context context.Context, book *Book) error {
	if err := service.validateBook(book); err != nil {
		return err
	}

	if book.TotalCopies < 0 {
		book.TotalCopies = 0
	}

	book.ID = uuidv7.New()
	book.Slug = slug.From(book.Title)
	// New stock goes straight to the shelf.
	book.AvailableCopies = book.TotalCopies
	book.SearchableText = BuildSearchableText(book.Title, book.ISBN, book.Tags)

	if err := service.repo.CreateBook(context, book); err != nil {
		return err
	}

	service.logger.Info("book_created",
		slog.String("book_id", book.ID),
		slog.String("slug", book.Slug),
		slog.Int("total_copies", book.TotalCopies),
	)
	return nil
}

func (service *Service) UpdateBook(context context.Context, id string, book *Book) error {
	book.ID = id
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return err
	}
	if err := service.validateBook(book); err != nil {
		return err
	}

	book.Slug = slug.From(book.Title)
	book.SearchableText = BuildSearchableText(book.Title, book.ISBN, book.Tags)

	if err := service.repo.UpdateBook(context, book); err != nil {
		return err
	}

	service.logger.Info("book_updated", slog.String("book_id", book.ID))
	return nil
}

// SetTotalCopies resizes the owned stock of a title. The shelf count moves
// by the same delta; shrinking below the number of loaned-out copies is
// rejected by the storage layer.
func (service *Service) SetTotalCopies(context context.Context, id string, totalCopies int) (*Book, error) {
	validator := &validate.Validator{}
	validator.UUID("id", id)
	validator.Min(FieldTotalCopies, totalCopies, 0)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	book, err := service.repo.SetTotalCopies(context, id, totalCopies)
	if err != nil {
		return nil, err
	}

	service.logger.Info("book_stock_resized",
		slog.String("book_id", id),
		slog.Int("total_copies", book.TotalCopies),
		slog.Int("available_copies", book.AvailableCopies),
	)
	return book, nil
}

func (service *Service) DeleteBook(context context.Context, id string) error {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return err
	}

	if err := service.repo.DeleteBook(context, id); err != nil {
		return err
	}

	service.logger.Warn("book_deleted", slog.String("book_id", id))
	return nil
}

func (service *Service) validateBook(book *Book) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, book.Title).MaxLen(FieldTitle, book.Title, 300)
	validator.Required(FieldAuthorID, book.AuthorID).UUID(FieldAuthorID, book.AuthorID)

	if book.CategoryID != nil {
		validator.UUID(FieldCategoryID, *book.CategoryID)
	}
	if book.CoverURL != nil {
		validator.URL(FieldCoverURL, *book.CoverURL)
	}
	if book.ISBN != nil {
		validator.MaxLen(FieldISBN, *book.ISBN, 17)
	}

	return validator.Err()
}
