package models

import (
	"time"

	"storefront_back_end/internal/money"
)

// Cart : un panier ouvert par session visiteur, éventuellement rattaché à un utilisateur.
type Cart struct {
	ID         string     `json:"id"`
	SessionKey string     `json:"-"`
	UserID     *string    `json:"user_id,omitempty"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem : le prix unitaire est verrouillé au moment de l'ajout.
type CartItem struct {
	ID        string         `json:"id"`
	CartID    string         `json:"cart_id"`
	ProductID string         `json:"product_id"`
	UnitPrice money.Money    `json:"unit_price"`
	Quantity  money.Quantity `json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
}

// CartLine est une ligne du modèle de lecture rendu au storefront.
type CartLine struct {
	ItemID    string         `json:"id"`
	ProductID string         `json:"product_id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	UnitPrice money.Money    `json:"price"`
	Images    []string       `json:"images"`
	Stock     money.Quantity `json:"stock"`
	Quantity  money.Quantity `json:"quantity"`
	Subtotal  money.Money    `json:"subtotal"`
	// Available est faux si le produit a disparu du catalogue ou a été désactivé.
	Available bool `json:"available"`
}

type CartView struct {
	CartID string      `json:"cart_id,omitempty"`
	Items  []CartLine  `json:"items"`
	Total  money.Money `json:"total"`
	Count  int         `json:"count"`
}

// EmptyCartView est le rendu d'un panier vide ou inexistant.
func EmptyCartView() CartView {
	return CartView{Items: []CartLine{}}
}
