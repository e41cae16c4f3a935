package models

import (
	"time"

	"storefront_back_end/internal/money"
)

// Product est fourni par le catalogue ; le cœur panier/commande ne fait que le lire
// (et décrémenter son stock au checkout).
type Product struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description" db:"description"`
	Price       money.Money    `json:"price" db:"price"`
	Stock       money.Quantity `json:"stock" db:"stock"`
	Images      []string       `json:"images" db:"images"`
	Active      bool           `json:"active" db:"active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
