package domain

import "time"

type WishlistItem struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	AddedAt   time.Time `json:"added_at"`
}
