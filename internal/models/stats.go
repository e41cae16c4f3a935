package models

import (
	"time"

	"storefront_back_end/internal/money"
)

// StatusStats : commandes et montant cumulé pour un statut.
type StatusStats struct {
	Count  int64       `json:"count"`
	Amount money.Money `json:"amount"`
}

type InventoryStats struct {
	Total      int64 `json:"total"`
	LowStock   int64 `json:"low_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

type ProductSales struct {
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
	Quantity    money.Quantity `json:"quantity"`
	Revenue     money.Money    `json:"revenue"`
}

type DashboardStats struct {
	Orders struct {
		Total             int64                       `json:"total"`
		Revenue           money.Money                 `json:"total_revenue"`
		AverageOrderValue money.Money                 `json:"average_order_value"`
		ByStatus          map[OrderStatus]StatusStats `json:"by_status"`
		Pending           int64                       `json:"pending"`
		Today             int64                       `json:"today_orders"`
		RevenueToday      money.Money                 `json:"revenue_today"`
	} `json:"orders"`
	Products     InventoryStats `json:"products"`
	TopProducts  []ProductSales `json:"top_products"`
	RecentOrders []OrderSummary `json:"recent_orders"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
