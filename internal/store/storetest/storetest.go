// Package storetest fournit une base SQLite en mémoire migrée et quelques
// helpers de seed pour les tests des autres paquets.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/store"
)

var dbSeq atomic.Int64

// New ouvre une base isolée par test. Une seule connexion : les
// transactions concurrentes sont sérialisées comme sur une vraie base
// avec verrouillage de ligne.
func New(t testing.TB) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", dbSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := store.New(db, store.SQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// Product insère un produit actif.
func Product(t testing.TB, s *store.Store, name string, price money.Money, stock money.Quantity) models.Product {
	t.Helper()
	now := time.Now().UTC()
	p := models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Price:     price,
		Stock:     stock,
		Images:    []string{"/img/" + name + ".jpg"},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.InsertProduct(context.Background(), p))
	return p
}

func User(t testing.TB, s *store.Store, name, email string, admin bool) models.User {
	t.Helper()
	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsAdmin:   admin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.InsertUser(context.Background(), u))
	return u
}

// Stock relit le stock courant d'un produit.
func Stock(t testing.TB, s *store.Store, productID string) money.Quantity {
	t.Helper()
	p, err := s.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

// Count compte les lignes d'une table.
func Count(t testing.TB, s *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
