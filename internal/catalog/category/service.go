package category

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libria/internal/platform/validate"
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

func (service *Service) ListCategories(context context.Context) ([]*Category, error) {
	return service.repo.ListCategories(context)
}

func (service *Service) GetCategory(context context.Context, id string) (*Category, error) {
	return service.repo.GetCategory(context, id)
}

func (service *Service) GetCategoryBySlug(context context.Context, categorySlug string) (*Category, error) {
	return service.repo.GetCategoryBySlug(context, categorySlug)
}

func (service *Service) CreateCategory(context context.Context, category *Category) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, 100)

	if err := validator.Err(); err != nil {
		return err
	}

	category.ID = uuidv7.New()
	category.Slug = slug.From(category.Name)

	if err := service.repo.CreateCategory(context, category); err != nil {
		return err
	}

	service.logger.Info("category_created", slog.String("slug", category.Slug))
	return nil
}

func (service *Service) UpdateCategory(context context.Context, id string, category *Category) error {
	category.ID = id
	validator := &validate.Validator{}
	validator.UUID("id", id)
	validator.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, 100)

	if err := validator.Err(); err != nil {
		return err
	}

	// Renames re-derive the slug so the public URL always tracks the name.
	category.Slug = slug.From(category.Name)

	if err := service.repo.UpdateCategory(context, category); err != nil {
		return err
	}

	service.logger.Info("category_updated", slog.String("category_id", category.ID))
	return nil
}

func (service *Service) DeleteCategory(context context.Context, id string) error {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return err
	}

	if err := service.repo.DeleteCategory(context, id); err != nil {
		return err
	}

	service.logger.Warn("category_deleted", slog.String("category_id", id))
	return nil
}
