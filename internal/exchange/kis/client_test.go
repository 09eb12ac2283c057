package kis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/exchange"
)

func openMarket(t time.Time) domain.MarketStatus {
	return domain.MarketStatus{IsOpen: true, CanPlaceOrder: true, Reason: "정규장"}
}

func closedMarket(t time.Time) domain.MarketStatus {
	return domain.MarketStatus{IsOpen: false, CanPlaceOrder: false, Reason: "장마감 또는 장전"}
}

// 테스트용 가짜 KIS 서버. 토큰/해시키/주문/시세 엔드포인트를 흉내냅니다.
type fakeKIS struct {
	tokenCalls  int64
	orderCalls  int64
	expiresIn   float64
	orderRtCd   string
	priceStatus int
}

func newFakeKIS() *fakeKIS {
	return &fakeKIS{expiresIn: 3600, orderRtCd: "0", priceStatus: http.StatusOK}
}

func (f *fakeKIS) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.tokenCalls, 1)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": f.expiresIn})
	})
	mux.HandleFunc("/uapi/hashkey", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"HASH": "test-hash"})
	})
	mux.HandleFunc("/uapi/domestic-stock/v1/trading/order-cash", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.orderCalls, 1)
		json.NewEncoder(w).Encode(map[string]any{"rt_cd": f.orderRtCd, "msg1": "테스트 응답"})
	})
	mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-price", func(w http.ResponseWriter, r *http.Request) {
		if f.priceStatus != http.StatusOK {
			w.WriteHeader(f.priceStatus)
			json.NewEncoder(w).Encode(map[string]any{"msg1": "오류"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"output": map[string]any{"stck_prpr": "70500"}})
	})
	return httptest.NewServer(mux)
}

func fastRetry() exchange.RetryPolicy {
	return exchange.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Retryable:   IsTransient,
	}
}

func newTestClient(base string, opts ...ClientOption) *Client {
	all := append([]ClientOption{
		WithBaseURL(base),
		WithClock(openMarket),
		WithRetryPolicy(fastRetry()),
		WithSeed(42),
	}, opts...)
	return NewClient("appkey", "appsecret", "12345678-01", []string{"005930"}, all...)
}

func buyOrder() domain.OrderRequest {
	return domain.OrderRequest{Symbol: "005930", Qty: 3, Side: domain.Buy, Price: 70000}
}

func TestPlaceOrderBlockedWhenMarketClosed(t *testing.T) {
	f := newFakeKIS()
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL, WithClock(closedMarket))

	result, err := c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err, "BLOCKED는 재시도할 실패가 아니라 정상 결과")
	assert.Equal(t, domain.Blocked, result.Status)
	assert.Equal(t, "장마감 또는 장전", result.Reason)

	// 네트워크를 전혀 건드리지 않아야 함
	assert.Zero(t, atomic.LoadInt64(&f.tokenCalls))
	assert.Zero(t, atomic.LoadInt64(&f.orderCalls))
}

func TestPlaceOrderFailsFastWithoutCredentials(t *testing.T) {
	c := NewClient("", "", "", []string{"005930"},
		WithClock(openMarket), WithRetryPolicy(fastRetry()))

	_, err := c.PlaceOrder(context.Background(), buyOrder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.False(t, IsTransient(err), "인증정보 누락은 재시도 대상이 아님")
}

func TestPlaceOrderMockMode(t *testing.T) {
	c := newTestClient("http://unreachable.invalid", WithMockOrder(true))

	result, err := c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)
	assert.Equal(t, domain.Filled, result.Status)
	assert.Equal(t, "0", result.RtCd)
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newFakeKIS()
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	result, err := c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)
	assert.Equal(t, domain.Filled, result.Status)
	assert.Equal(t, "005930", result.Symbol)
	assert.Equal(t, 3, result.Qty)
	assert.Equal(t, "테스트 응답", result.Msg)
}

func TestPlaceOrderFailureMapsToTransientError(t *testing.T) {
	f := newFakeKIS()
	f.orderRtCd = "1"
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.PlaceOrder(context.Background(), buyOrder())
	require.Error(t, err)

	var kerr *Error
	assert.True(t, errors.As(err, &kerr))
	// 3회 시도 후 포기
	assert.Equal(t, int64(3), atomic.LoadInt64(&f.orderCalls))
}

func TestTokenReusedWithinValidity(t *testing.T) {
	f := newFakeKIS()
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)
	_, err = c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&f.tokenCalls),
		"유효기간 내 연속 주문은 토큰을 재사용해야 함")
}

func TestTokenRefreshedNearExpiry(t *testing.T) {
	f := newFakeKIS()
	f.expiresIn = 30 // 갱신 여유(60초)보다 짧아 다음 호출에서 바로 갱신
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)
	_, err = c.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&f.tokenCalls),
		"만료 임박 토큰은 정확히 한 번씩 갱신되어야 함")
}

func TestFetchQuotesLivePrice(t *testing.T) {
	f := newFakeKIS()
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 70500.0, quotes[0].Price)
	assert.False(t, quotes[0].DegradedPrice)
}

func TestFetchQuotesFallsBackToSyntheticPrice(t *testing.T) {
	f := newFakeKIS()
	f.priceStatus = http.StatusInternalServerError
	srv := f.server()
	defer srv.Close()

	c := newTestClient(srv.URL)

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err, "종목 하나의 시세 실패가 사이클 전체를 실패시키면 안 됨")
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].DegradedPrice, "합성 가격 강등은 표시되어야 함")
	assert.Greater(t, quotes[0].Price, 0.0)
}

func TestFetchQuotesFailsFastWithoutCredentials(t *testing.T) {
	c := NewClient("", "", "", []string{"005930"}, WithRetryPolicy(fastRetry()))

	_, err := c.FetchQuotes(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
