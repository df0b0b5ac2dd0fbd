package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryToys        Category = "toys"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome, CategorySports, CategoryToys, CategoryOther:
		return true
	}
	return false
}

// Product is a catalog entry. Rating and NumReviews are derived from reviews
// and recomputed on every review write; Stock is mutated only by the order
// lifecycle.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Stock       int             `json:"stock"`
	Rating      decimal.Decimal `json:"rating"`
	NumReviews  int             `json:"num_reviews"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return Invalid("name", "is required")
	}
	if p.Price.IsNegative() {
		return Invalid("price", "must not be negative")
	}
	if !p.Category.Valid() {
		return Invalid("category", "unknown category")
	}
	if p.Stock < 0 {
		return Invalid("stock", "must not be negative")
	}
	return nil
}
