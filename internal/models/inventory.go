package models

import (
	"time"

	"github.com/gocql/gocql"
)

// StockMovement est journalisé à chaque décrément de stock au checkout.
type StockMovement struct {
	ID        gocql.UUID `json:"id"`
	ProductID string     `json:"product_id"`
	Type      string     `json:"type"` // "sale"
	Quantity  int64      `json:"quantity"`
	PrevStock int64      `json:"prev_stock"`
	NewStock  int64      `json:"new_stock"`
	Reason    string     `json:"reason"`
	OrderID   string     `json:"order_id,omitempty"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
}

const MovementSale = "sale"
