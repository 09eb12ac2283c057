// internal/exchange/sim/client.go
package sim

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/exchange"
)

// Client는 DRY-RUN 게이트웨이입니다. 합성 시세를 생성하고
// 모든 주문을 즉시 SIMULATED로 체결 처리합니다. 네트워크를 쓰지 않습니다.
type Client struct {
	symbols []string
	rng     *rand.Rand
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithSeed는 합성 시세의 난수 시드를 고정합니다 (테스트용)
func WithSeed(seed int64) ClientOption {
	return func(c *Client) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// NewClient는 DRY-RUN 게이트웨이를 생성합니다
func NewClient(symbols []string, opts ...ClientOption) *Client {
	c := &Client{
		symbols: symbols,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchQuotes는 감시 종목 전체의 합성 시세를 반환합니다. 항상 성공합니다.
func (c *Client) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(c.symbols))
	for _, s := range c.symbols {
		quotes = append(quotes, exchange.SyntheticQuote(c.rng, s, exchange.SyntheticPrice(c.rng), false))
	}
	return quotes, nil
}

// PlaceOrder는 주문을 모의 체결합니다. 항상 SIMULATED를 반환합니다.
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error) {
	orderID := ulid.Make().String()
	log.Printf("DRY-RUN 모의 체결: %s %s x%d @ %.0f (id=%s)",
		order.Side, order.Symbol, order.Qty, order.Price, orderID)
	return domain.OrderResult{
		Status:  domain.Simulated,
		Symbol:  order.Symbol,
		Qty:     order.Qty,
		Side:    order.Side,
		Price:   order.Price,
		OrderID: orderID,
	}, nil
}
