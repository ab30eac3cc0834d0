package schema

// SocialRatingTable represents the 'social.rating' table
type SocialRatingTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	Score     string
	Review    string
	CreatedAt string
	UpdatedAt string
}

// SocialRating is the schema definition for social.rating
var SocialRating = SocialRatingTable{
	Table:     "social.rating",
	ID:        "id",
	UserID:    "userid",
	BookID:    "bookid",
	Score:     "score",
	Review:    "review",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t SocialRatingTable) Columns() []string {
	return []string{t.ID, t.UserID, t.BookID, t.Score, t.Review, t.CreatedAt, t.UpdatedAt}
}
