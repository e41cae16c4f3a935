package store

import (
	"context"
	"time"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
)

// OrderStatsByStatus agrège le registre des commandes par statut.
func (q *Queries) OrderStatsByStatus(ctx context.Context) (map[models.OrderStatus]models.StatusStats, error) {
	rows, err := q.query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.OrderStatus]models.StatusStats{}
	for rows.Next() {
		var (
			status string
			count  int64
			amount int64
		)
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, err
		}
		out[models.OrderStatus(status)] = models.StatusStats{Count: count, Amount: money.Money(amount)}
	}
	return out, rows.Err()
}

// OrdersSince compte les commandes passées depuis since et leur montant
// hors commandes annulées.
func (q *Queries) OrdersSince(ctx context.Context, since time.Time) (int64, money.Money, error) {
	var count, amount int64
	err := q.queryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status <> ? THEN total_amount ELSE 0 END), 0)
		 FROM orders WHERE created_at >= ?`,
		string(models.StatusCancelled), since.UTC()).Scan(&count, &amount)
	return count, money.Money(amount), err
}

// InventoryStats compte les produits actifs en rupture ou sous le seuil.
func (q *Queries) InventoryStats(ctx context.Context, lowThreshold money.Quantity) (models.InventoryStats, error) {
	var s models.InventoryStats
	err := q.queryRow(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN stock > 0 AND stock <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0)
		 FROM products WHERE active = ?`,
		lowThreshold.Int64(), true).Scan(&s.Total, &s.LowStock, &s.OutOfStock)
	return s, err
}

// TopProducts : meilleures ventes hors commandes annulées.
func (q *Queries) TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error) {
	rows, err := q.query(ctx,
		`SELECT oi.product_id, MAX(oi.product_name), SUM(oi.quantity), SUM(oi.subtotal)
		 FROM order_items oi JOIN orders o ON o.id = oi.order_id
		 WHERE o.status <> ?
		 GROUP BY oi.product_id
		 ORDER BY SUM(oi.quantity) DESC, oi.product_id
		 LIMIT ?`,
		string(models.StatusCancelled), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ProductSales{}
	for rows.Next() {
		var (
			ps       models.ProductSales
			qty, rev int64
		)
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &qty, &rev); err != nil {
			return nil, err
		}
		ps.Quantity, ps.Revenue = money.Quantity(qty), money.Money(rev)
		out = append(out, ps)
	}
	return out, rows.Err()
}
