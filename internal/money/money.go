// Package money regroupe les montants en unités mineures (centimes, grosze)
// et les quantités non négatives utilisés par le panier et les commandes.
// Aucun calcul monétaire ne passe par des flottants.
package money

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrOverflow = errors.New("dépassement de capacité")
	ErrNegative = errors.New("valeur négative interdite")
)

// Money est un montant en unités mineures (1499 = 14,99).
type Money int64

// Quantity est une quantité d'articles, jamais négative.
type Quantity int64

// NewMoney valide un montant lu depuis l'extérieur.
func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return 0, fmt.Errorf("montant %d: %w", minor, ErrNegative)
	}
	return Money(minor), nil
}

// NewQuantity valide une quantité lue depuis l'extérieur.
func NewQuantity(n int64) (Quantity, error) {
	if n < 0 {
		return 0, fmt.Errorf("quantité %d: %w", n, ErrNegative)
	}
	return Quantity(n), nil
}

// Add additionne deux montants en détectant le dépassement.
func (m Money) Add(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, ErrOverflow
	}
	return m + o, nil
}

// Times retourne m × q.
func (m Money) Times(q Quantity) (Money, error) {
	if q == 0 || m == 0 {
		return 0, nil
	}
	r := int64(m) * int64(q)
	if r/int64(q) != int64(m) {
		return 0, ErrOverflow
	}
	return Money(r), nil
}

func (m Money) Int64() int64 { return int64(m) }

// String formate le montant avec deux décimales ("14.99").
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Sum additionne une liste de montants.
func Sum(amounts ...Money) (Money, error) {
	var total Money
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (q Quantity) Int64() int64 { return int64(q) }

// Add additionne deux quantités en détectant le dépassement.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	if q > math.MaxInt64-o {
		return 0, ErrOverflow
	}
	return q + o, nil
}

// SubFloor retourne q - o, planché à zéro.
func (q Quantity) SubFloor(o Quantity) Quantity {
	if o >= q {
		return 0
	}
	return q - o
}
