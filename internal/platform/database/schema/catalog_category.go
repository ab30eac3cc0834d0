package schema

// CatalogCategoryTable represents the 'catalog.category' table
type CatalogCategoryTable struct {
	Table       string
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// CatalogCategory is the schema definition for catalog.category
var CatalogCategory = CatalogCategoryTable{
	Table:       "catalog.category",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

func (t CatalogCategoryTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Description, t.CreatedAt, t.UpdatedAt, t.DeletedAt}
}
