package book

import (
	"strings"
	"time"
)

// Book represents one catalog title together with its physical inventory.
//
// TotalCopies is how many copies the library owns; AvailableCopies is how
// many sit on the shelf right now. The circulation manager is the only
// writer of AvailableCopies — the catalog only moves both numbers together
// when the owned stock changes.
type Book struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     *string    `json:"description"`
	AuthorID        string     `json:"author_id"`
	CategoryID      *string    `json:"category_id"`
	ISBN            *string    `json:"isbn"`
	CoverURL        *string    `json:"cover_url"`
	Tags            []string   `json:"tags"`
	TotalCopies     int        `json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	SearchableText  string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"` // soft-delete tracker
}

// Available reports whether at least one copy sits on the shelf.
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}

// BuildSearchableText derives the denormalized search string for a book.
func BuildSearchableText(title string, isbn *string, tags []string) string {
	parts := []string{title}
	if isbn != nil {
		parts = append(parts, *isbn)
	}
	parts = append(parts, tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Filter holds the parameters for a paginated book search.
type Filter struct {
	Query         string   // Match against the searchable text
	AuthorID      string   // Restrict to one author
	CategoryID    string   // Restrict to one category
	Tags          []string // Require all listed tags
	AvailableOnly bool     // Only books with copies on the shelf
}

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAuthorID    = "author_id"
	FieldCategoryID  = "category_id"
	FieldISBN        = "isbn"
	FieldCoverURL    = "cover_url"
	FieldTags        = "tags"
	FieldTotalCopies = "total_copies"
)
