package rating_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/social/rating"
	"github.com/taibuivan/libria/pkg/pointer"
)

type fakeRatingRepo struct {
	// keyed by userID + "/" + bookID, one rating per pair
	ratings map[string]*rating.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: map[string]*rating.Rating{}}
}

func (r *fakeRatingRepo) Upsert(_ context.Context, in *rating.Rating) error {
	clone := *in
	r.ratings[in.UserID+"/"+in.BookID] = &clone
	return nil
}

func (r *fakeRatingRepo) GetOwn(_ context.Context, userID, bookID string) (*rating.Rating, error) {
	own, ok := r.ratings[userID+"/"+bookID]
	if !ok {
		return nil, apperr.NotFound("Rating")
	}
	clone := *own
	return &clone, nil
}

func (r *fakeRatingRepo) ListForBook(_ context.Context, bookID string, _, _ int) ([]*rating.Rating, int, error) {
	var out []*rating.Rating
	for _, rr := range r.ratings {
		if rr.BookID == bookID {
			clone := *rr
			out = append(out, &clone)
		}
	}
	return out, len(out), nil
}

func (r *fakeRatingRepo) Summarize(_ context.Context, bookID string) (*rating.Summary, error) {
	summary := &rating.Summary{BookID: bookID}
	for _, rr := range r.ratings {
		if rr.BookID == bookID {
			summary.RatingsCount++
			summary.AverageScore += float64(rr.Score)
		}
	}
	if summary.RatingsCount > 0 {
		summary.AverageScore /= float64(summary.RatingsCount)
	}
	return summary, nil
}

func (r *fakeRatingRepo) DeleteOwn(_ context.Context, userID, bookID string) error {
	key := userID + "/" + bookID
	if _, ok := r.ratings[key]; !ok {
		return apperr.NotFound("Rating")
	}
	delete(r.ratings, key)
	return nil
}

func newRatingService() (*rating.Service, *fakeRatingRepo) {
	repo := newFakeRatingRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return rating.NewService(repo, logger), repo
}

func TestService_Rate(t *testing.T) {
	service, repo := newRatingService()

	rated, err := service.Rate(context.Background(), "user-1", "book-1", 4, pointer.To("A labyrinth of a book."))
	require.NoError(t, err)
	assert.Equal(t, 4, rated.Score)

	t.Run("re_rating_overwrites", func(t *testing.T) {
		_, err := service.Rate(context.Background(), "user-1", "book-1", 5, nil)
		require.NoError(t, err)

		assert.Len(t, repo.ratings, 1)
		own, err := service.GetOwn(context.Background(), "user-1", "book-1")
		require.NoError(t, err)
		assert.Equal(t, 5, own.Score)
		assert.Nil(t, own.Review)
	})
}

func TestService_Rate_ScoreBounds(t *testing.T) {
	service, _ := newRatingService()

	for _, score := range []int{0, 6, -3} {
		_, err := service.Rate(context.Background(), "user-1", "book-1", score, nil)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	}

	for _, score := range []int{rating.MinScore, rating.MaxScore} {
		_, err := service.Rate(context.Background(), "user-1", "book-1", score, nil)
		assert.NoError(t, err)
	}
}

func TestService_Summarize(t *testing.T) {
	service, _ := newRatingService()

	_, err := service.Rate(context.Background(), "user-1", "book-1", 5, nil)
	require.NoError(t, err)
	_, err = service.Rate(context.Background(), "user-2", "book-1", 2, nil)
	require.NoError(t, err)

	summary, err := service.Summarize(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RatingsCount)
	assert.InDelta(t, 3.5, summary.AverageScore, 0.001)
}

func TestService_DeleteOwn(t *testing.T) {
	service, _ := newRatingService()

	_, err := service.Rate(context.Background(), "user-1", "book-1", 3, nil)
	require.NoError(t, err)

	require.NoError(t, service.DeleteOwn(context.Background(), "user-1", "book-1"))

	err = service.DeleteOwn(context.Background(), "user-1", "book-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
