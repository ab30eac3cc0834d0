package category

import "context"

type Repository interface {
	ListCategories(context context.Context) ([]*Category, error)
	GetCategory(context context.Context, id string) (*Category, error)
	GetCategoryBySlug(context context.Context, slug string) (*Category, error)
	CreateCategory(context context.Context, c *Category) error
	UpdateCategory(context context.Context, c *Category) error
	DeleteCategory(context context.Context, id string) error
}
