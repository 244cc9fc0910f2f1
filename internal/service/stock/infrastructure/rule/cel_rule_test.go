// internal/service/stock/infrastructure/rule/cel_rule_test.go
package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExpression(t *testing.T) {
	r, err := NewCELReorderRule("")
	require.NoError(t, err)

	cases := []struct {
		quantity, reorderLevel int
		want                   bool
	}{
		{quantity: 5, reorderLevel: 20, want: true},
		{quantity: 20, reorderLevel: 20, want: true},
		{quantity: 21, reorderLevel: 20, want: false},
		{quantity: 0, reorderLevel: 0, want: true},
	}
	for _, c := range cases {
		got, err := r.IsLow(c.quantity, c.reorderLevel)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "quantity=%d reorder=%d", c.quantity, c.reorderLevel)
	}
}

func TestCustomExpression(t *testing.T) {
	r, err := NewCELReorderRule("quantity <= reorder_level * 2")
	require.NoError(t, err)

	got, err := r.IsLow(35, 20)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = r.IsLow(41, 20)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestInvalidExpressionRejected(t *testing.T) {
	_, err := NewCELReorderRule("quantity +")
	assert.Error(t, err)

	// 非布尔结果在编译期就被拒绝
	_, err = NewCELReorderRule("quantity + reorder_level")
	assert.Error(t, err)
}
