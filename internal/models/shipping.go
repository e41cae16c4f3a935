package models

import "storefront_back_end/internal/money"

type DeliveryOption struct {
	ID            DeliveryMethod `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         money.Money    `json:"price"`
	EstimatedDays int            `json:"estimated_days"`
}

type CheckoutForm struct {
	ContactInfo
	ShippingAddress
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
}
