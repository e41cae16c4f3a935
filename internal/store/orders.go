package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"storefront_back_end/internal/models"
)

const orderColumns = `o.id, o.cart_id, o.user_id, o.session_key, o.status,
	o.customer_name, o.customer_email, o.customer_phone,
	o.address_line1, o.address_line2, o.city, o.postal_code, o.country,
	o.delivery_method, o.payment_method, o.delivery_price, o.total_amount,
	o.created_at, o.updated_at`

func scanOrder(row scanner) (models.Order, error) {
	var (
		o      models.Order
		userID sql.NullString
	)
	err := row.Scan(&o.ID, &o.CartID, &userID, &o.SessionKey, &o.Status,
		&o.Contact.Name, &o.Contact.Email, &o.Contact.Phone,
		&o.Address.Line1, &o.Address.Line2, &o.Address.City, &o.Address.PostalCode, &o.Address.Country,
		&o.DeliveryMethod, &o.PaymentMethod, &o.DeliveryPrice, &o.TotalAmount,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, notFound(err)
	}
	o.UserID = stringPtr(userID)
	return o, nil
}

// InsertOrder écrit l'en-tête de commande. ErrDuplicate si le panier a déjà
// été converti.
func (q *Queries) InsertOrder(ctx context.Context, o models.Order) error {
	_, err := q.exec(ctx,
		`INSERT INTO orders (id, cart_id, user_id, session_key, status,
			customer_name, customer_email, customer_phone,
			address_line1, address_line2, city, postal_code, country,
			delivery_method, payment_method, delivery_price, total_amount,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CartID, nullString(o.UserID), o.SessionKey, string(o.Status),
		o.Contact.Name, o.Contact.Email, o.Contact.Phone,
		o.Address.Line1, o.Address.Line2, o.Address.City, o.Address.PostalCode, o.Address.Country,
		string(o.DeliveryMethod), string(o.PaymentMethod), o.DeliveryPrice.Int64(), o.TotalAmount.Int64(),
		o.CreatedAt.UTC(), o.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (q *Queries) InsertOrderItem(ctx context.Context, it models.OrderItem, position int) error {
	_, err := q.exec(ctx,
		`INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, subtotal, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.OrderID, it.ProductID, it.ProductName,
		it.UnitPrice.Int64(), it.Quantity.Int64(), it.Subtotal.Int64(), position)
	return err
}

func (q *Queries) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return scanOrder(q.queryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id))
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := q.query(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal
		 FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrdersByUser : commandes d'un client, plus récentes d'abord.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return q.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC`,
		userID)
}

// LatestOrderForUser sert à pré-remplir le formulaire de commande.
func (q *Queries) LatestOrderForUser(ctx context.Context, userID string) (models.Order, error) {
	return scanOrder(q.queryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = ?
		 ORDER BY o.created_at DESC, o.id DESC LIMIT 1`, userID))
}

func (q *Queries) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) error {
	res, err := q.exec(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.UTC(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// OrderSort est une colonne de tri de la liste admin.
type OrderSort string

const (
	SortByID            OrderSort = "id"
	SortByUserName      OrderSort = "user_name"
	SortByCustomerEmail OrderSort = "customer_email"
	SortByStatus        OrderSort = "status"
	SortByTotalAmount   OrderSort = "total_amount"
	SortByCreatedAt     OrderSort = "created_at"
)

var orderSortColumns = map[OrderSort]string{
	SortByID:            "o.id",
	SortByUserName:      "u.name",
	SortByCustomerEmail: "o.customer_email",
	SortByStatus:        "o.status",
	SortByTotalAmount:   "o.total_amount",
	SortByCreatedAt:     "o.created_at",
}

// ParseOrderSort retombe sur created_at pour une colonne inconnue.
func ParseOrderSort(s string) OrderSort {
	if _, ok := orderSortColumns[OrderSort(s)]; ok {
		return OrderSort(s)
	}
	return SortByCreatedAt
}

// OrderFilter : From inclus, Until exclu.
type OrderFilter struct {
	Status *models.OrderStatus
	From   *time.Time
	Until  *time.Time
	Sort   OrderSort
	Desc   bool
	Limit  int
}

// ListOrders alimente la liste admin (nom du client via users si connu).
func (q *Queries) ListOrders(ctx context.Context, f OrderFilter) ([]models.OrderSummary, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		where = append(where, "o.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		where = append(where, "o.created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.Until != nil {
		where = append(where, "o.created_at < ?")
		args = append(args, f.Until.UTC())
	}

	col, ok := orderSortColumns[f.Sort]
	if !ok {
		col = orderSortColumns[SortByCreatedAt]
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	var b strings.Builder
	b.WriteString(`SELECT o.id, u.name, o.customer_email, o.status, o.total_amount, o.created_at
		FROM orders o LEFT JOIN users u ON u.id = o.user_id`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + col + " " + dir + ", o.id " + dir)
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := q.query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OrderSummary{}
	for rows.Next() {
		var (
			s    models.OrderSummary
			name sql.NullString
		)
		if err := rows.Scan(&s.ID, &name, &s.CustomerEmail, &s.Status, &s.TotalAmount, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.UserName = stringPtr(name)
		out = append(out, s)
	}
	return out, rows.Err()
}
