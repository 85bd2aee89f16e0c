package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storefront/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("tee-001", "Basic Tee", "", decimal.NewFromInt(20))
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("creates draft product", func(t *testing.T) {
		p, err := NewProduct("tee-001", "Basic Tee", "", decimal.NewFromInt(20))
		require.NoError(t, err)
		assert.Equal(t, "TEE-001", p.SKU)
		assert.Equal(t, "basic-tee", p.Slug)
		assert.Equal(t, ProductStatusDraft, p.Status)
		assert.False(t, p.IsSellable())
		require.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("X1", "X", "", decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("rejects invalid sku", func(t *testing.T) {
		_, err := NewProduct("bad sku!", "X", "", decimal.Zero)
		assert.Error(t, err)
	})
}

func TestProduct_SetPrice(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.SetPrice(decimal.NewFromInt(15), decimal.NewFromInt(20)))
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeProductPriceChanged, p.GetDomainEvents()[0].EventType())

	assert.Error(t, p.SetPrice(decimal.NewFromInt(20), decimal.NewFromInt(10)))
	assert.Error(t, p.SetPrice(decimal.NewFromInt(-5), decimal.Zero))
}

func TestProduct_StatusTransitions(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.Activate())
	assert.True(t, p.IsSellable())
	assert.Error(t, p.Activate())

	require.NoError(t, p.Deactivate())
	require.NoError(t, p.Discontinue())
	assert.Error(t, p.Activate())
	assert.Error(t, p.Deactivate())
	assert.Error(t, p.Discontinue())
}

func TestProduct_VariationsAndOptions(t *testing.T) {
	p := newTestProduct(t)

	color, err := p.AddVariation("Color")
	require.NoError(t, err)
	_, err = p.AddVariation("color")
	assert.Error(t, err)

	red, err := p.AddOption(color.ID, OptionInput{Value: "Red", SKUSuffix: "red", PriceAdjustment: decimal.NewFromInt(2), Stock: 5})
	require.NoError(t, err)
	assert.Equal(t, "RED", red.SKUSuffix)

	_, err = p.AddOption(color.ID, OptionInput{Value: "red", Stock: 1})
	assert.Error(t, err, "duplicate value")

	_, err = p.AddOption(color.ID, OptionInput{Value: "Cheap", PriceAdjustment: decimal.NewFromInt(-25)})
	assert.Error(t, err, "negative final price")

	blue, err := p.AddOption(color.ID, OptionInput{Value: "Blue", Stock: 3})
	require.NoError(t, err)

	assert.True(t, p.HasVariations())
	assert.Equal(t, 8, p.TotalStock())

	t.Run("resolve requires option", func(t *testing.T) {
		_, err := p.Resolve(nil)
		assert.Error(t, err)
	})

	t.Run("resolve option", func(t *testing.T) {
		res, err := p.Resolve(&red.ID)
		require.NoError(t, err)
		assert.True(t, res.UnitPrice.Equal(decimal.NewFromInt(22)))
		assert.Equal(t, 5, res.Available)
		assert.Equal(t, "TEE-001-RED", res.SKU)
		assert.Equal(t, "Color: Red", res.OptionLabel)
	})

	t.Run("price change guarded by options", func(t *testing.T) {
		require.NoError(t, p.UpdateOption(blue.ID, OptionInput{Value: "Blue", PriceAdjustment: decimal.NewFromInt(-10), Stock: 3}))
		assert.Error(t, p.SetPrice(decimal.NewFromInt(5), decimal.Zero))
	})

	t.Run("stock per option", func(t *testing.T) {
		require.NoError(t, p.DeductStock(&red.ID, 5))
		assert.ErrorIs(t, p.DeductStock(&red.ID, 1), shared.ErrInsufficientStock)
		require.NoError(t, p.RestoreStock(&red.ID, 2))
		_, opt := p.FindOption(red.ID)
		assert.Equal(t, 2, opt.Stock)
	})

	t.Run("remove option and variation", func(t *testing.T) {
		require.NoError(t, p.RemoveOption(blue.ID))
		assert.Error(t, p.RemoveOption(blue.ID))
		require.NoError(t, p.RenameVariation(color.ID, "Colour"))
		require.NoError(t, p.RemoveVariation(color.ID))
		assert.False(t, p.HasVariations())
		assert.Error(t, p.RemoveVariation(color.ID))
	})
}

func TestProduct_SimpleStock(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AdjustStock(nil, 10))

	res, err := p.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Available)

	missing := uuid.New()
	_, err = p.Resolve(&missing)
	assert.Error(t, err)

	assert.Error(t, p.DeductStock(nil, 11))
	assert.Error(t, p.DeductStock(nil, 0))
	require.NoError(t, p.DeductStock(nil, 10))
	assert.Equal(t, 0, p.Stock)
}

func TestProduct_Images(t *testing.T) {
	p := newTestProduct(t)

	key1, err := ImageObjectKey(p.ID, "image/png")
	require.NoError(t, err)
	key2, err := ImageObjectKey(p.ID, "image/jpeg")
	require.NoError(t, err)

	_, err = ImageObjectKey(p.ID, "application/pdf")
	assert.Error(t, err)

	img1, err := p.AddImage(key1, "https://cdn/1.png", "front")
	require.NoError(t, err)
	assert.True(t, img1.IsPrimary)

	img2, err := p.AddImage(key2, "https://cdn/2.jpg", "")
	require.NoError(t, err)
	assert.False(t, img2.IsPrimary)

	_, err = p.AddImage(key1, "https://cdn/1.png", "")
	assert.Error(t, err)
	_, err = p.AddImage("products/other/x.png", "u", "")
	assert.Error(t, err)

	require.NoError(t, p.SetPrimaryImage(img2.ID))
	assert.Equal(t, "https://cdn/2.jpg", p.PrimaryImageURL())

	removed, err := p.RemoveImage(img2.ID)
	require.NoError(t, err)
	assert.Equal(t, key2, removed.ObjectKey)
	require.Len(t, p.Images, 1)
	assert.True(t, p.Images[0].IsPrimary)
}

func TestBrand(t *testing.T) {
	b, err := NewBrand("Acme Corp", "")
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", b.Slug)
	assert.True(t, b.IsActive())

	require.NoError(t, b.Update("Acme", "", "https://logo", "desc"))
	assert.Equal(t, "acme", b.Slug)

	b.SetActive(false)
	assert.False(t, b.IsActive())

	_, err = NewBrand("", "")
	assert.Error(t, err)
}
