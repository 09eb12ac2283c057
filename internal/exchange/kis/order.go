package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/assist-by/kstock/internal/domain"
)

// KIS 국내주식 현금주문 거래ID
const (
	trIDBuy  = "TTTC0802U" // 현금 매수
	trIDSell = "TTTC0801U" // 현금 매도
)

// PlaceOrder는 LIVE 주문을 제출합니다.
// 장 마감이면 재시도 없이 BLOCKED 결과를 반환하고(에러 아님),
// 인증정보가 없으면 즉시 실패합니다. 실제 제출 경로만 재시도 정책의
// 대상이 됩니다.
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error) {
	status := c.clock(time.Now())
	if !status.CanPlaceOrder {
		log.Printf("LIVE 주문 차단 - 장 마감: %s", status.Reason)
		return domain.OrderResult{
			Status: domain.Blocked,
			Symbol: order.Symbol,
			Qty:    order.Qty,
			Side:   order.Side,
			Reason: status.Reason,
		}, nil
	}

	if err := c.validateCredentials(); err != nil {
		return domain.OrderResult{}, err
	}

	if c.mockOrder {
		log.Printf("LIVE-MOCK 주문 성공: %s %s x%d @ %.0f", order.Side, order.Symbol, order.Qty, order.Price)
		return domain.OrderResult{
			Status: domain.Filled,
			Symbol: order.Symbol,
			Qty:    order.Qty,
			Side:   order.Side,
			Price:  order.Price,
			RtCd:   "0",
			Msg:    "LIVE mock order success",
		}, nil
	}

	var result domain.OrderResult
	err := c.retry.Do(ctx, fmt.Sprintf("%s 주문 제출", order.Symbol), func() error {
		r, err := c.submitOrder(ctx, order)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return domain.OrderResult{}, err
	}
	return result, nil
}

// submitOrder는 토큰 확보, 해시키 서명, 주문 전송을 한 번 수행합니다
func (c *Client) submitOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return domain.OrderResult{}, err
	}

	body, err := c.buildOrderBody(order)
	if err != nil {
		return domain.OrderResult{}, err
	}

	hashkey, err := c.hashkey(ctx, body)
	if err != nil {
		return domain.OrderResult{}, err
	}

	trID, err := trIDForSide(order.Side)
	if err != nil {
		return domain.OrderResult{}, err
	}

	headers := map[string]string{
		"Content-Type":  "application/json; charset=utf-8",
		"authorization": "Bearer " + token,
		"appKey":        c.appKey,
		"appSecret":     c.appSecret,
		"tr_id":         trID,
		"custtype":      "P",
		"hashkey":       hashkey,
	}

	statusCode, data, err := c.doJSON(ctx, http.MethodPost,
		c.baseURL+"/uapi/domestic-stock/v1/trading/order-cash", headers, body)
	if err != nil {
		return domain.OrderResult{}, &Error{Op: "주문", Err: err}
	}

	rtCd := strField(data, "rt_cd")
	msg1 := strField(data, "msg1")

	if statusCode != http.StatusOK || rtCd != "0" {
		log.Printf("KIS LIVE 주문 실패 | status=%d rt_cd=%s msg1=%s side=%s symbol=%s qty=%d",
			statusCode, rtCd, msg1, order.Side, order.Symbol, order.Qty)
		return domain.OrderResult{}, &Error{Op: "주문",
			Err: fmt.Errorf("status=%d, rt_cd=%s, msg1=%s", statusCode, rtCd, msg1)}
	}

	log.Printf("KIS LIVE 주문 성공 | rt_cd=%s msg1=%s side=%s symbol=%s qty=%d",
		rtCd, msg1, order.Side, order.Symbol, order.Qty)

	return domain.OrderResult{
		Status: domain.Filled,
		Symbol: order.Symbol,
		Qty:    order.Qty,
		Side:   order.Side,
		Price:  order.Price,
		RtCd:   rtCd,
		Msg:    msg1,
	}, nil
}

// buildOrderBody는 현금주문 요청 본문을 생성합니다.
// ORD_DVSN: 00 지정가, 01 시장가 (가격이 0 이하이면 시장가)
func (c *Client) buildOrderBody(order domain.OrderRequest) ([]byte, error) {
	cano, prdtCd, err := c.splitAccountNo()
	if err != nil {
		return nil, err
	}

	ordUnpr := "0"
	ordDvsn := "01"
	if price := int(math.Round(order.Price)); price > 0 {
		ordUnpr = fmt.Sprintf("%d", price)
		ordDvsn = "00"
	}

	return json.Marshal(map[string]string{
		"CANO":         cano,
		"ACNT_PRDT_CD": prdtCd,
		"PDNO":         order.Symbol,
		"ORD_DVSN":     ordDvsn,
		"ORD_QTY":      fmt.Sprintf("%d", order.Qty),
		"ORD_UNPR":     ordUnpr,
	})
}

// hashkey는 주문 본문에 대한 요청 서명 해시를 발급받습니다
func (c *Client) hashkey(ctx context.Context, body []byte) (string, error) {
	headers := map[string]string{
		"content-type": "application/json",
		"appKey":       c.appKey,
		"appSecret":    c.appSecret,
	}

	statusCode, data, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/uapi/hashkey", headers, body)
	if err != nil {
		return "", &Error{Op: "해시키 발급", Err: err}
	}

	hash := strField(data, "HASH")
	if statusCode != http.StatusOK || hash == "" {
		return "", &Error{Op: "해시키 발급", Err: fmt.Errorf("status=%d, rt_cd=%s, msg1=%s",
			statusCode, strField(data, "rt_cd"), strField(data, "msg1"))}
	}
	return hash, nil
}

func trIDForSide(side domain.OrderSide) (string, error) {
	switch side {
	case domain.Buy:
		return trIDBuy, nil
	case domain.Sell:
		return trIDSell, nil
	default:
		return "", fmt.Errorf("지원하지 않는 주문 방향: %s", side)
	}
}
