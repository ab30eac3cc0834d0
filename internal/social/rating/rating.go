package rating

import "time"

// Rating is one user's score for one book, with an optional review text.
// A user holds at most one rating per book; re-rating overwrites in place.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Score     int       `json:"score"`
	Review    *string   `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary aggregates all ratings of one book.
type Summary struct {
	BookID       string  `json:"book_id"`
	AverageScore float64 `json:"average_score"`
	RatingsCount int     `json:"ratings_count"`
}

const (
	MinScore = 1
	MaxScore = 5

	FieldScore  = "score"
	FieldReview = "review"
)
