package domain

import "time"

// Review is unique per (product, user); writing one recomputes the parent
// product's rating and review count.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Helpful   int       `json:"helpful"`
	Unhelpful int       `json:"unhelpful"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return Invalid("rating", "must be between 1 and 5")
	}
	if r.Title == "" {
		return Invalid("title", "is required")
	}
	return nil
}
