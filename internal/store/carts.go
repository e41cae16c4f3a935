package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
)

func scanCart(row scanner) (models.Cart, error) {
	var (
		c      models.Cart
		userID sql.NullString
	)
	if err := row.Scan(&c.ID, &c.SessionKey, &userID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Cart{}, notFound(err)
	}
	c.UserID = stringPtr(userID)
	return c, nil
}

// GetCartBySession retourne le panier de la session, sans ses lignes.
func (q *Queries) GetCartBySession(ctx context.Context, sessionKey string) (models.Cart, error) {
	return scanCart(q.queryRow(ctx,
		`SELECT id, session_key, user_id, created_at, updated_at FROM carts WHERE session_key = ?`,
		sessionKey))
}

// CreateCartIfMissing insère un panier pour la session s'il n'en existe pas ;
// une course entre deux requêtes de la même session n'en crée qu'un.
func (q *Queries) CreateCartIfMissing(ctx context.Context, id, sessionKey string, userID *string, now time.Time) error {
	_, err := q.exec(ctx,
		`INSERT INTO carts (id, session_key, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_key) DO NOTHING`,
		id, sessionKey, nullString(userID), now.UTC(), now.UTC())
	return err
}

// AttachCartUser rattache un panier anonyme à l'utilisateur connecté.
func (q *Queries) AttachCartUser(ctx context.Context, cartID, userID string, now time.Time) error {
	res, err := q.exec(ctx,
		`UPDATE carts SET user_id = ?, updated_at = ? WHERE id = ?`,
		userID, now.UTC(), cartID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (q *Queries) TouchCart(ctx context.Context, cartID string, now time.Time) error {
	_, err := q.exec(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`, now.UTC(), cartID)
	return err
}

// DeleteCart supprime le panier et toutes ses lignes.
func (q *Queries) DeleteCart(ctx context.Context, cartID string) error {
	if _, err := q.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	res, err := q.exec(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

const cartItemColumns = `id, cart_id, product_id, unit_price, quantity, created_at`

func scanCartItem(row scanner) (models.CartItem, error) {
	var it models.CartItem
	if err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.UnitPrice, &it.Quantity, &it.CreatedAt); err != nil {
		return models.CartItem{}, notFound(err)
	}
	return it, nil
}

// ListCartItems retourne les lignes dans l'ordre d'ajout.
func (q *Queries) ListCartItems(ctx context.Context, cartID string) ([]models.CartItem, error) {
	rows, err := q.query(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = ? ORDER BY position`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetCartItem retourne la ligne et la clé de session du panier qui la porte.
func (q *Queries) GetCartItem(ctx context.Context, itemID string) (models.CartItem, string, error) {
	var (
		it         models.CartItem
		sessionKey string
	)
	err := q.queryRow(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.unit_price, ci.quantity, ci.created_at, c.session_key
		 FROM cart_items ci JOIN carts c ON c.id = ci.cart_id
		 WHERE ci.id = ?`, itemID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.UnitPrice, &it.Quantity, &it.CreatedAt, &sessionKey)
	if err != nil {
		return models.CartItem{}, "", notFound(err)
	}
	return it, sessionKey, nil
}

func (q *Queries) FindCartItem(ctx context.Context, cartID, productID string) (models.CartItem, error) {
	return scanCartItem(q.queryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID))
}

// InsertCartItem ajoute une ligne en fin de panier. ErrDuplicate si le
// produit y est déjà.
func (q *Queries) InsertCartItem(ctx context.Context, it models.CartItem) error {
	var last int64
	if err := q.queryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM cart_items WHERE cart_id = ?`, it.CartID).Scan(&last); err != nil {
		return err
	}
	_, err := q.exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, unit_price, quantity, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.CartID, it.ProductID, it.UnitPrice.Int64(), it.Quantity.Int64(), last+1, it.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (q *Queries) SetCartItemQuantity(ctx context.Context, itemID string, qty money.Quantity) error {
	res, err := q.exec(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ?`, qty.Int64(), itemID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// IncrementCartItemQuantity ajoute qty à la ligne sans dépasser max ;
// ErrInsufficientStock si la quantité résultante dépasserait max.
func (q *Queries) IncrementCartItemQuantity(ctx context.Context, itemID string, qty, max money.Quantity) (money.Quantity, error) {
	var total money.Quantity
	err := q.queryRow(ctx,
		`UPDATE cart_items SET quantity = quantity + ?
		 WHERE id = ? AND quantity + ? <= ?
		 RETURNING quantity`,
		qty.Int64(), itemID, qty.Int64(), max.Int64()).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (q *Queries) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := q.exec(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ListCartLines joint les lignes au catalogue ; un produit supprimé ou
// désactivé donne une ligne marquée indisponible. Subtotal n'est pas rempli.
func (q *Queries) ListCartLines(ctx context.Context, cartID string) ([]models.CartLine, error) {
	rows, err := q.query(ctx,
		`SELECT ci.id, ci.product_id, ci.unit_price, ci.quantity,
		        p.name, p.slug, p.images, p.stock, p.active
		 FROM cart_items ci LEFT JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = ?
		 ORDER BY ci.position`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var (
			l      models.CartLine
			name   sql.NullString
			slug   sql.NullString
			images sql.NullString
			stock  sql.NullInt64
			active sql.NullBool
		)
		if err := rows.Scan(&l.ItemID, &l.ProductID, &l.UnitPrice, &l.Quantity,
			&name, &slug, &images, &stock, &active); err != nil {
			return nil, err
		}
		l.Name = name.String
		l.Slug = slug.String
		l.Images = decodeImages(images.String)
		l.Stock = money.Quantity(stock.Int64)
		l.Available = name.Valid && active.Valid && active.Bool
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
