//go:build unit

package catalog_test

import (
	"testing"

	"digital-store/internal/domain/catalog"

	"github.com/stretchr/testify/assert"
)

func TestRenderDelivery(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "全変数を置換",
			template: "Order {order_number}: {quantity} x {product_name} for {user_id}",
			want:     "Order AB12CD34: 2 x VPN key for 1001",
		},
		{
			name:     "空テンプレートはデフォルト文言",
			template: "",
			want:     "Your order #AB12CD34 has been completed!",
		},
		{
			name:     "未知の変数はそのまま",
			template: "{order_number} {unknown}",
			want:     "AB12CD34 {unknown}",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &catalog.Product{ID: 1, Name: "VPN key", DeliveryTemplate: tc.template}
			assert.Equal(t, tc.want, p.RenderDelivery("AB12CD34", 2, 1001))
		})
	}
}

func TestUnlimited(t *testing.T) {
	five := 5
	assert.True(t, (&catalog.Product{}).Unlimited())
	assert.False(t, (&catalog.Product{StockCount: &five}).Unlimited())
}
