package category

import "time"

// Category represents a browsable genre or shelf classification.
type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"` // soft-delete tracker
}

const (
	FieldName        = "name"
	FieldSlug        = "slug"
	FieldDescription = "description"
)
