package book_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libria/internal/catalog/book"
	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/pointer"
)

const testAuthorID = "0190b40f-92a3-7aaf-8c3e-2f46a85e1d4b"

type fakeBookRepo struct {
	books map[string]*book.Book
	// onLoan is how many copies are out per book, for stock-resize rules.
	onLoan map[string]int
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: map[string]*book.Book{}, onLoan: map[string]int{}}
}

func (r *fakeBookRepo) ListBooks(_ context.Context, f book.Filter, _ pagination.Params) ([]*book.Book, int, error) {
	var out []*book.Book
	for _, b := range r.books {
		if f.AvailableOnly && !b.Available() {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeBookRepo) GetBook(_ context.Context, id string) (*book.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, apperr.NotFound("Book")
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookRepo) GetBookBySlug(_ context.Context, slug string) (*book.Book, error) {
	for _, b := range r.books {
		if b.Slug == slug {
			clone := *b
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Book")
}

func (r *fakeBookRepo) CreateBook(_ context.Context, b *book.Book) error {
	clone := *b
	r.books[b.ID] = &clone
	return nil
}

func (r *fakeBookRepo) UpdateBook(_ context.Context, b *book.Book) error {
	stored, ok := r.books[b.ID]
	if !ok {
		return apperr.NotFound("Book")
	}
	b.TotalCopies = stored.TotalCopies
	b.AvailableCopies = stored.AvailableCopies
	clone := *b
	r.books[b.ID] = &clone
	return nil
}

func (r *fakeBookRepo) SetTotalCopies(_ context.Context, id string, totalCopies int) (*book.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, apperr.NotFound("Book")
	}
	if totalCopies < r.onLoan[id] {
		return nil, apperr.InvalidState("Cannot reduce stock below the number of copies on loan")
	}
	b.AvailableCopies += totalCopies - b.TotalCopies
	b.TotalCopies = totalCopies
	clone := *b
	return &clone, nil
}

func (r *fakeBookRepo) DeleteBook(_ context.Context, id string) error {
	if _, ok := r.books[id]; !ok {
		return apperr.NotFound("Book")
	}
	delete(r.books, id)
	return nil
}

func newBookService() (*book.Service, *fakeBookRepo) {
	repo := newFakeBookRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return book.NewService(repo, logger), repo
}

func TestService_CreateBook(t *testing.T) {
	service, repo := newBookService()

	input := &book.Book{
		Title:       "The Name of the Rose",
		AuthorID:    testAuthorID,
		ISBN:        pointer.To("978-0-15-144647-1"),
		Tags:        []string{"Mystery", "historical"},
		TotalCopies: 3,
	}

	require.NoError(t, service.CreateBook(context.Background(), input))

	assert.NotEmpty(t, input.ID)
	assert.Equal(t, "the-name-of-the-rose", input.Slug)
	assert.Equal(t, 3, input.AvailableCopies)
	assert.Contains(t, input.SearchableText, "the name of the rose")
	assert.Contains(t, input.SearchableText, "mystery")
	assert.Len(t, repo.books, 1)
}

func TestService_CreateBook_Validation(t *testing.T) {
	service, _ := newBookService()

	tests := []struct {
		name  string
		input *book.Book
	}{
		{"missing_title", &book.Book{AuthorID: testAuthorID}},
		{"missing_author", &book.Book{Title: "Orphan"}},
		{"malformed_author", &book.Book{Title: "Bad Author", AuthorID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.CreateBook(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		})
	}
}

func TestService_UpdateBook_RefreshesDerivedFields(t *testing.T) {
	service, repo := newBookService()

	input := &book.Book{Title: "Old Title", AuthorID: testAuthorID, TotalCopies: 1}
	require.NoError(t, service.CreateBook(context.Background(), input))

	update := &book.Book{Title: "Brand New Title", AuthorID: testAuthorID}
	require.NoError(t, service.UpdateBook(context.Background(), input.ID, update))

	stored := repo.books[input.ID]
	assert.Equal(t, "brand-new-title", stored.Slug)
	assert.Contains(t, stored.SearchableText, "brand new title")
}

func TestService_SetTotalCopies(t *testing.T) {
	service, repo := newBookService()

	input := &book.Book{Title: "Stocked", AuthorID: testAuthorID, TotalCopies: 5}
	require.NoError(t, service.CreateBook(context.Background(), input))

	t.Run("grow_moves_shelf_count", func(t *testing.T) {
		resized, err := service.SetTotalCopies(context.Background(), input.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, resized.TotalCopies)
		assert.Equal(t, 8, resized.AvailableCopies)
	})

	t.Run("shrink_below_loans_rejected", func(t *testing.T) {
		repo.onLoan[input.ID] = 4

		_, err := service.SetTotalCopies(context.Background(), input.ID, 2)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", apperr.As(err).Code)
	})

	t.Run("negative_total_rejected", func(t *testing.T) {
		_, err := service.SetTotalCopies(context.Background(), input.ID, -1)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}
