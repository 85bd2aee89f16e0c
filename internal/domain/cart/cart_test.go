package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storefront/backend/internal/domain/shared"
)

func TestCart_AddItemMergesSameLine(t *testing.T) {
	c := NewCart(uuid.New())
	productID := uuid.New()
	optionID := uuid.New()

	_, err := c.AddItem(productID, &optionID, 2, decimal.NewFromInt(10), 10)
	require.NoError(t, err)

	sameOption := optionID
	item, err := c.AddItem(productID, &sameOption, 3, decimal.NewFromInt(12), 10)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(12)))

	_, err = c.AddItem(productID, nil, 1, decimal.NewFromInt(10), 10)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2, "no-option line is distinct")

	assert.Equal(t, 6, c.ItemCount())
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(70)))
}

func TestCart_AddItemValidation(t *testing.T) {
	c := NewCart(uuid.New())
	productID := uuid.New()

	_, err := c.AddItem(productID, nil, 0, decimal.NewFromInt(1), 10)
	assert.Error(t, err)

	_, err = c.AddItem(productID, nil, 11, decimal.NewFromInt(1), 10)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = c.AddItem(productID, nil, 100, decimal.NewFromInt(1), 1000)
	assert.Error(t, err)

	_, err = c.AddItem(productID, nil, 8, decimal.NewFromInt(1), 10)
	require.NoError(t, err)
	_, err = c.AddItem(productID, nil, 3, decimal.NewFromInt(1), 10)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock, "merged quantity is checked")
	assert.Equal(t, 8, c.Items[0].Quantity)
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := NewCart(uuid.New())
	item, err := c.AddItem(uuid.New(), nil, 2, decimal.NewFromInt(5), 10)
	require.NoError(t, err)
	itemID := item.ID

	require.NoError(t, c.UpdateQuantity(itemID, 4, 10))
	assert.Equal(t, 4, c.FindItem(itemID).Quantity)

	assert.Error(t, c.UpdateQuantity(itemID, -1, 10))
	assert.Error(t, c.UpdateQuantity(itemID, 11, 10))
	assert.Error(t, c.UpdateQuantity(uuid.New(), 1, 10))

	require.NoError(t, c.UpdateQuantity(itemID, 0, 10))
	assert.True(t, c.IsEmpty())
	assert.Error(t, c.RemoveItem(itemID))
}

func TestCart_Clear(t *testing.T) {
	c := NewCart(uuid.New())
	_, _ = c.AddItem(uuid.New(), nil, 1, decimal.NewFromInt(5), 10)
	_, _ = c.AddItem(uuid.New(), nil, 1, decimal.NewFromInt(5), 10)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}
