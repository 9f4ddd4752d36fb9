//go:build unit

package catalog_test

import (
	"context"
	"testing"

	domain "digital-store/internal/domain/catalog"
	"digital-store/internal/infra/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	c, err := catalog.LoadFile("testdata/products.json")
	require.NoError(t, err)

	products, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, int64(1), products[0].ID)

	p, err := c.Product(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))
	require.NotNil(t, p.StockCount)
	assert.Equal(t, 25, *p.StockCount)
	assert.True(t, products[0].Unlimited())
}

func TestFileCatalog_Product(t *testing.T) {
	c, err := catalog.Parse([]byte(`[{"id":7,"name":"x","price":"1","currency":"xtr","is_active":true}]`))
	require.NoError(t, err)

	t.Run("通貨は大文字に正規化される", func(t *testing.T) {
		p, err := c.Product(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "XTR", p.Currency)
	})

	t.Run("存在しない商品", func(t *testing.T) {
		_, err := c.Product(context.Background(), 8)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("返された値を変更してもカタログは変わらない", func(t *testing.T) {
		p, err := c.Product(context.Background(), 7)
		require.NoError(t, err)
		p.Name = "changed"
		again, err := c.Product(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "x", again.Name)
	})
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"壊れたJSON", `[{`},
		{"IDが0", `[{"id":0,"name":"x","price":"1","currency":"XTR"}]`},
		{"名前なし", `[{"id":1,"name":" ","price":"1","currency":"XTR"}]`},
		{"負の価格", `[{"id":1,"name":"x","price":"-1","currency":"XTR"}]`},
		{"小数点以下3桁の価格", `[{"id":1,"name":"x","price":"1.005","currency":"USD"}]`},
		{"通貨なし", `[{"id":1,"name":"x","price":"1"}]`},
		{"負の在庫", `[{"id":1,"name":"x","price":"1","currency":"XTR","stock_count":-1}]`},
		{"重複ID", `[{"id":1,"name":"x","price":"1","currency":"XTR"},{"id":1,"name":"y","price":"1","currency":"XTR"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_PriceScale(t *testing.T) {
	c, err := catalog.Parse([]byte(`[{"id":1,"name":"x","price":"10.500","currency":"USD"}]`))
	require.NoError(t, err, "trailing zeros fit two decimals")

	p, err := c.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("10.5")))
}
