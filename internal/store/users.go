package store

import (
	"context"

	"storefront_back_end/internal/models"
)

func (q *Queries) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := q.queryRow(ctx,
		`SELECT id, name, email, is_admin, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// InsertUser sert au seed et aux tests ; les comptes sont gérés par l'auth.
func (q *Queries) InsertUser(ctx context.Context, u models.User) error {
	_, err := q.exec(ctx,
		`INSERT INTO users (id, name, email, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.IsAdmin, u.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
