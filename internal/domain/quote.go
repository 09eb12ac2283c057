package domain

import "time"

// Quote는 한 사이클에서 종목별로 한 번 생성되는 시세 스냅샷입니다.
// 모든 필드는 생성 이후 변경되지 않습니다.
type Quote struct {
	Symbol            string  // 종목코드 (예: 005930)
	Price             float64 // 현재가 (KRW)
	VolumeRatio       float64 // 평균 대비 거래량 배율
	VolatilityPct     float64 // 일중 변동성 (%)
	ExecutionStrength float64 // 체결강도
	SpreadPct         float64 // 호가 스프레드 (%)
	TrendSlope        float64 // 단기 추세 기울기
	DegradedPrice     bool    // LIVE 시세 조회 실패로 합성 가격을 사용한 경우 true
}

// MarketStatus는 장 운영 상태를 표현합니다
type MarketStatus struct {
	IsOpen        bool   // 정규장 여부
	CanPlaceOrder bool   // 주문 가능 여부
	Reason        string // 상태 사유 (정규장/휴장일/장마감 등)
}

// OrderRequest는 단건 주문 요청을 표현합니다
type OrderRequest struct {
	Symbol string
	Qty    int
	Side   OrderSide
	Price  float64 // 0 이하이면 시장가
}

// OrderResult는 주문 처리 결과를 표현합니다
type OrderResult struct {
	Status  OrderStatus
	Symbol  string
	Qty     int
	Side    OrderSide
	Price   float64
	OrderID string // 브로커 또는 모의 체결 주문 ID
	Reason  string // BLOCKED 사유 등
	RtCd    string // KIS 응답 코드 (LIVE 전용)
	Msg     string // KIS 응답 메시지 (LIVE 전용)
}

// Position은 보유 중인 단건 포지션입니다. 종목당 최대 1개만 존재합니다.
type Position struct {
	Symbol     string
	TradeID    int64 // 저장소의 트레이드 기록 ID
	EntryPrice float64
	Qty        int
	EntryTime  time.Time
}
