package models

import (
	"time"

	"storefront_back_end/internal/money"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// cycle de vie normal d'une commande
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered, StatusCancelled},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo indique si le passage s -> next suit le cycle de vie.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "courier"
	DeliveryLocker  DeliveryMethod = "locker"
	DeliveryPickup  DeliveryMethod = "pickup"
)

var DeliveryMethods = []DeliveryMethod{DeliveryCourier, DeliveryLocker, DeliveryPickup}

func ParseDeliveryMethod(s string) (DeliveryMethod, bool) {
	for _, m := range DeliveryMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentTransfer       PaymentMethod = "transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var PaymentMethods = []PaymentMethod{PaymentTransfer, PaymentCashOnDelivery}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type ContactInfo struct {
	Name  string `json:"customer_name" validate:"required,max=255"`
	Email string `json:"customer_email" validate:"required,email,max=255"`
	Phone string `json:"customer_phone" validate:"required,max=50"`
}

type ShippingAddress struct {
	Line1      string `json:"address_line1" validate:"required,max=255"`
	Line2      string `json:"address_line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=120"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=120"`
}

// Order est écrite une seule fois au checkout ; seul Status évolue ensuite.
type Order struct {
	ID             string          `json:"id"`
	CartID         string          `json:"-"`
	UserID         *string         `json:"user_id,omitempty"`
	SessionKey     string          `json:"-"`
	Status         OrderStatus     `json:"status"`
	Contact        ContactInfo     `json:"contact"`
	Address        ShippingAddress `json:"address"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	DeliveryPrice  money.Money     `json:"delivery_price"`
	TotalAmount    money.Money     `json:"total_amount"`
	Items          []OrderItem     `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem fige le produit, le prix et la quantité au moment de la commande.
type OrderItem struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
	UnitPrice   money.Money    `json:"unit_price"`
	Quantity    money.Quantity `json:"quantity"`
	Subtotal    money.Money    `json:"subtotal"`
}

// OrderSummary est une ligne de la liste admin.
type OrderSummary struct {
	ID            string      `json:"id"`
	UserName      *string     `json:"user_name"`
	CustomerEmail string      `json:"customer_email"`
	Status        OrderStatus `json:"status"`
	TotalAmount   money.Money `json:"total_amount"`
	CreatedAt     time.Time   `json:"created_at"`
}

// OrderDetail : commande + lignes + acheteur éventuel (vue admin).
type OrderDetail struct {
	Order
	User *User `json:"user"`
}
