package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("MART-01", "Martillo de uña", "Unidad")
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, "MART-01", product.Code)
		assert.Equal(t, "Martillo de uña", product.Name)
		assert.Equal(t, "Unidad", product.Unit)
		assert.True(t, product.PurchasePrice.IsZero())
		assert.True(t, product.SellingPrice.IsZero())
		assert.True(t, product.Stock.IsZero())
		assert.True(t, product.Active)
		assert.Nil(t, product.CategoryID)
		assert.NotEmpty(t, product.ID)
	})

	t.Run("keeps code case and trims spaces", func(t *testing.T) {
		product, err := NewProduct("  cab-123456-1 ", "Cable", "")
		require.NoError(t, err)
		assert.Equal(t, "cab-123456-1", product.Code)
		assert.Equal(t, DefaultUnit, product.Unit)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewProduct("", "Test Product", "Unidad")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct("A", " ", "Unidad")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestProductApplyImport(t *testing.T) {
	product, err := NewProduct("TUB-10", "Tubo", "Metro")
	require.NoError(t, err)
	require.NoError(t, product.SetPrices(valueobject.NewMoneyPEN(decimal.NewFromInt(3)), valueobject.NewMoneyPEN(decimal.NewFromInt(5))))

	require.NoError(t, product.ApplyImport("Tubo PVC 1/2", "Villa Rica", decimal.NewFromInt(40), decimal.NewFromInt(8)))

	assert.Equal(t, "Tubo PVC 1/2", product.Name)
	assert.Equal(t, "Villa Rica", product.Store)
	assert.True(t, product.Stock.Equal(decimal.NewFromInt(40)))
	assert.True(t, product.MinStock.Equal(decimal.NewFromInt(8)))
	assert.True(t, product.SellingPrice.Equal(decimal.NewFromInt(5)), "price is untouched by imports")
	assert.Equal(t, "Metro", product.Unit)

	assert.Error(t, product.ApplyImport("", "x", decimal.Zero, decimal.Zero))
	assert.Error(t, product.ApplyImport("ok", "x", decimal.NewFromInt(-1), decimal.Zero))
}

func TestProductPrices(t *testing.T) {
	product, _ := NewProduct("A", "A", "")
	err := product.SetPrices(valueobject.NewMoneyPEN(decimal.NewFromInt(-1)), valueobject.NewMoneyPEN(decimal.NewFromInt(1)))
	assert.Error(t, err)
	err = product.SetPrices(valueobject.NewMoneyPEN(decimal.NewFromInt(1)), valueobject.NewMoneyPEN(decimal.NewFromInt(-1)))
	assert.Error(t, err)
	require.NoError(t, product.SetPrices(valueobject.NewMoneyPEN(decimal.NewFromInt(1)), valueobject.NewMoneyPEN(decimal.NewFromInt(2))))
	assert.Equal(t, "2.00 PEN", product.GetSellingPriceMoney().String())
}

func TestProductStock(t *testing.T) {
	product, _ := NewProduct("A", "A", "")
	product.Stock = decimal.NewFromInt(10)
	product.MinStock = decimal.NewFromInt(5)

	assert.False(t, product.IsLowStock())
	require.NoError(t, product.DecreaseStock(decimal.NewFromInt(5)))
	assert.True(t, product.IsLowStock())

	err := product.DecreaseStock(decimal.NewFromInt(6))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Error(t, product.DecreaseStock(decimal.Zero))
	assert.True(t, product.Stock.Equal(decimal.NewFromInt(5)))
}

func TestProductCategory(t *testing.T) {
	product, _ := NewProduct("A", "A", "")
	id := uuid.New()
	product.SetCategory(&id)
	assert.Equal(t, &id, product.CategoryID)
	product.Deactivate()
	assert.False(t, product.Active)
}
