package rating

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

// Rate records or replaces the caller's score for a book.
func (service *Service) Rate(context context.Context, userID, bookID string, score int, review *string) (*Rating, error) {
	validator := &validate.Validator{}
	validator.Range(FieldScore, score, MinScore, MaxScore)
	if review != nil {
		validator.MaxLen(FieldReview, *review, 4000)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	rating := &Rating{
		ID:     uuidv7.New(),
		UserID: userID,
		BookID: bookID,
		Score:  score,
		Review: review,
	}
	if err := service.repo.Upsert(context, rating); err != nil {
		return nil, err
	}

	service.logger.Info("book_rated",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.Int("score", score),
	)
	return rating, nil
}

func (service *Service) GetOwn(context context.Context, userID, bookID string) (*Rating, error) {
	return service.repo.GetOwn(context, userID, bookID)
}

func (service *Service) ListForBook(context context.Context, bookID string, limit, offset int) ([]*Rating, int, error) {
	return service.repo.ListForBook(context, bookID, limit, offset)
}

func (service *Service) Summarize(context context.Context, bookID string) (*Summary, error) {
	return service.repo.Summarize(context, bookID)
}

func (service *Service) DeleteOwn(context context.Context, userID, bookID string) error {
	if err := service.repo.DeleteOwn(context, userID, bookID); err != nil {
		return err
	}

	service.logger.Info("rating_deleted",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
	)
	return nil
}
