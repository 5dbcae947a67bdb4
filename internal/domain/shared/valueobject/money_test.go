package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8.474576", "8.47"},
		{"3.0492", "3.05"},
		{"0.005", "0.01"},
		{"0.004", "0"},
		{"-0.005", "-0.01"},
		{"16.94", "16.94"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), PEN)
		require.NoError(t, err)
		assert.Equal(t, PEN, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyPENFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyPENFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyPENFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyPEN(decimal.NewFromFloat(16.94))
	b := NewMoneyPEN(decimal.NewFromFloat(3.05))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "19.99 PEN", sum.String())

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_MultiplyRound(t *testing.T) {
	m := NewMoneyPEN(decimal.RequireFromString("8.47")).Multiply(decimal.NewFromInt(2)).Round2()
	assert.True(t, m.Equals(NewMoneyPEN(decimal.RequireFromString("16.94"))))
	assert.False(t, m.IsZero())
	assert.True(t, Zero(PEN).IsZero())
}

func TestMoney_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewMoneyPEN(decimal.NewFromInt(5)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"5.00","currency":"PEN"}`, string(data))
}
