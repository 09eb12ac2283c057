package kis

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/exchange"
)

// FetchQuotes는 감시 종목 전체의 시세 스냅샷을 조회합니다.
// 가격만 실시세이고 나머지 미시구조 필드는 합성입니다. 개별 종목의
// 시세 조회 실패는 합성 가격으로 강등시켜 전체 사이클을 실패시키지
// 않으며, 강등된 시세는 DegradedPrice로 표시됩니다.
func (c *Client) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	if err := c.validateCredentials(); err != nil {
		return nil, err
	}

	var quotes []domain.Quote
	err := c.retry.Do(ctx, "시세 스캔", func() error {
		q, err := c.fetchQuotesOnce(ctx)
		if err != nil {
			return err
		}
		quotes = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (c *Client) fetchQuotesOnce(ctx context.Context) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(c.symbols))
	for _, symbol := range c.symbols {
		price, err := c.fetchLivePrice(ctx, symbol)
		if err != nil {
			// 토큰 계열 장애는 스캔 전체를 실패시키고 재시도 대상이 됨
			return nil, err
		}

		degraded := false
		if price <= 0 {
			log.Printf("LIVE 시세 실패, 합성 가격으로 강등: %s", symbol)
			price = exchange.SyntheticPrice(c.rng)
			degraded = true
		}

		quotes = append(quotes, exchange.SyntheticQuote(c.rng, symbol, price, degraded))
	}
	return quotes, nil
}

// fetchLivePrice는 종목 현재가를 조회합니다. 개별 HTTP/파싱 실패는
// 0을 반환해 호출자가 합성 가격으로 강등하게 하고, 토큰 발급 실패만
// 에러로 전파합니다.
func (c *Client) fetchLivePrice(ctx context.Context, symbol string) (float64, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	headers := map[string]string{
		"content-type":  "application/json; charset=utf-8",
		"authorization": "Bearer " + token,
		"appKey":        c.appKey,
		"appSecret":     c.appSecret,
		"tr_id":         "FHKST01010100", // 주식현재가 시세
		"custtype":      "P",
	}

	url := c.baseURL + "/uapi/domestic-stock/v1/quotations/inquire-price" +
		"?fid_cond_mrkt_div_code=J&fid_input_iscd=" + symbol

	statusCode, data, err := c.doJSON(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		log.Printf("LIVE 시세 오류 symbol=%s err=%v", symbol, err)
		return 0, nil
	}
	if statusCode != http.StatusOK {
		log.Printf("LIVE 시세 실패 status=%d symbol=%s msg=%s", statusCode, symbol, strField(data, "msg1"))
		return 0, nil
	}

	output, ok := data["output"].(map[string]any)
	if !ok {
		return 0, nil
	}
	prpr := strings.TrimSpace(strField(output, "stck_prpr"))
	if prpr == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(prpr, 64)
	if err != nil {
		return 0, nil
	}
	return price, nil
}
