package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
)

const productColumns = `id, name, slug, description, price, stock, images, active, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p      models.Product
		images string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock,
		&images, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, notFound(err)
	}
	p.Images = decodeImages(images)
	return p, nil
}

func decodeImages(raw string) []string {
	images := []string{}
	if raw == "" {
		return images
	}
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return []string{}
	}
	return images
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (q *Queries) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return scanProduct(q.queryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
}

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	return scanProduct(q.queryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
}

// InsertProduct sert au seed et aux tests ; le CRUD catalogue vit ailleurs.
func (q *Queries) InsertProduct(ctx context.Context, p models.Product) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return fmt.Errorf("images produit: %w", err)
	}
	_, err = q.exec(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price.Int64(), p.Stock.Int64(),
		images, p.Active, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DecrementStock retire qty du stock si et seulement si le stock suffit.
// Retourne ErrInsufficientStock sans rien modifier dans le cas contraire.
func (q *Queries) DecrementStock(ctx context.Context, productID string, qty money.Quantity, now time.Time) (money.Quantity, error) {
	var left money.Quantity
	err := q.queryRow(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ?
		 WHERE id = ? AND stock >= ?
		 RETURNING stock`,
		qty.Int64(), now.UTC(), productID, qty.Int64()).Scan(&left)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return left, nil
}

// SetStock remplace le stock (réassort, tests).
func (q *Queries) SetStock(ctx context.Context, productID string, stock money.Quantity, now time.Time) error {
	res, err := q.exec(ctx,
		`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		stock.Int64(), now.UTC(), productID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// SetProductActive active ou retire un produit du catalogue.
func (q *Queries) SetProductActive(ctx context.Context, productID string, active bool, now time.Time) error {
	res, err := q.exec(ctx,
		`UPDATE products SET active = ?, updated_at = ? WHERE id = ?`,
		active, now.UTC(), productID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (q *Queries) DeleteProduct(ctx context.Context, productID string) error {
	res, err := q.exec(ctx, `DELETE FROM products WHERE id = ?`, productID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
