package schema

// CatalogBookTable represents the 'catalog.book' table
type CatalogBookTable struct {
	Table           string
	ID              string
	Title           string
	Slug            string
	Description     string
	AuthorID        string
	CategoryID      string
	ISBN            string
	CoverURL        string
	Tags            string
	TotalCopies     string
	AvailableCopies string
	SearchableText  string
	CreatedAt       string
	UpdatedAt       string
	DeletedAt       string
}

// CatalogBook is the schema definition for catalog.book
var CatalogBook = CatalogBookTable{
	Table:           "catalog.book",
	ID:              "id",
	Title:           "title",
	Slug:            "slug",
	Description:     "description",
	AuthorID:        "authorid",
	CategoryID:      "categoryid",
	ISBN:            "isbn",
	CoverURL:        "coverurl",
	Tags:            "tags",
	TotalCopies:     "totalcopies",
	AvailableCopies: "availablecopies",
	SearchableText:  "searchabletext",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
	DeletedAt:       "deletedat",
}

func (t CatalogBookTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Description, t.AuthorID, t.CategoryID, t.ISBN, t.CoverURL,
		t.Tags, t.TotalCopies, t.AvailableCopies, t.SearchableText, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
