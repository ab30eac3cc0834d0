package author

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libria/internal/platform/validate"
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

func (service *Service) ListAuthors(context context.Context, filter Filter, limit, offset int) ([]*Author, int, error) {
	return service.repo.ListAuthors(context, filter, limit, offset)
}

func (service *Service) GetAuthor(context context.Context, id string) (*Author, error) {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	return service.repo.GetAuthor(context, id)
}

func (service *Service) CreateAuthor(context context.Context, author *Author) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, author.Name).MaxLen(FieldName, author.Name, 200)

	if author.ImageURL != nil {
		validator.URL(FieldImageURL, *author.ImageURL)
	}

	if err := validator.Err(); err != nil {
		return err
	}

	author.ID = uuidv7.New()
	if err := service.repo.CreateAuthor(context, author); err != nil {
		return err
	}

	service.logger.Info("author_created", slog.String("name", author.Name))
	return nil
}

func (service *Service) UpdateAuthor(context context.Context, id string, author *Author) error {
	author.ID = id
	validator := &validate.Validator{}
	validator.UUID("id", id)
	validator.Required(FieldName, author.Name).MaxLen(FieldName, author.Name, 200)

	if author.ImageURL != nil {
		validator.URL(FieldImageURL, *author.ImageURL)
	}

	if err := validator.Err(); err != nil {
		return err
	}
	if err := service.repo.UpdateAuthor(context, author); err != nil {
		return err
	}

	service.logger.Info("author_updated", slog.String("author_id", author.ID))
	return nil
}

func (service *Service) DeleteAuthor(context context.Context, id string) error {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return err
	}

	if err := service.repo.DeleteAuthor(context, id); err != nil {
		return err
	}

	service.logger.Warn("author_deleted", slog.String("author_id", id))
	return nil
}
