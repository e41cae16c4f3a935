package money

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyRejectsNegative(t *testing.T) {
	_, err := NewMoney(-1)
	assert.ErrorIs(t, err, ErrNegative)

	m, err := NewMoney(1499)
	require.NoError(t, err)
	assert.Equal(t, Money(1499), m)
}

func TestNewQuantityRejectsNegative(t *testing.T) {
	_, err := NewQuantity(-3)
	assert.ErrorIs(t, err, ErrNegative)
}

func TestOverflow(t *testing.T) {
	_, err := Money(math.MaxInt64).Add(1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Money(math.MaxInt64 / 2).Times(3)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Quantity(math.MaxInt64).Add(1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestString(t *testing.T) {
	assert.Equal(t, "14.99", Money(1499).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-3.00", Money(-300).String())
}

func TestSubFloor(t *testing.T) {
	assert.Equal(t, Quantity(2), Quantity(5).SubFloor(3))
	assert.Equal(t, Quantity(0), Quantity(3).SubFloor(5))
}

func TestSum(t *testing.T) {
	total, err := Sum(1000, 2000, 1499)
	require.NoError(t, err)
	assert.Equal(t, Money(4499), total)
}

func TestArithmeticProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("times matches repeated addition", prop.ForAll(
		func(price int64, qty int64) bool {
			got, err := Money(price).Times(Quantity(qty))
			if err != nil {
				return false
			}
			var want Money
			for i := int64(0); i < qty; i++ {
				want, _ = want.Add(Money(price))
			}
			return got == want
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 50),
	))

	properties.Property("sub floor never negative", prop.ForAll(
		func(a, b int64) bool {
			return Quantity(a).SubFloor(Quantity(b)) >= 0
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.TestingRun(t)
}
