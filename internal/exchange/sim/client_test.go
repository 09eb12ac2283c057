package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kstock/internal/domain"
)

func TestFetchQuotesCoversUniverse(t *testing.T) {
	symbols := []string{"005930", "000660", "035420"}
	c := NewClient(symbols, WithSeed(1))

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	for i, q := range quotes {
		assert.Equal(t, symbols[i], q.Symbol)
		assert.Greater(t, q.Price, 0.0)
		assert.False(t, q.DegradedPrice)
	}
}

func TestPlaceOrderAlwaysSimulated(t *testing.T) {
	c := NewClient([]string{"005930"}, WithSeed(1))

	result, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "005930", Qty: 1, Side: domain.Buy, Price: 70000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Simulated, result.Status)
	assert.True(t, result.Status.Executed())
	assert.NotEmpty(t, result.OrderID)
}
