package domain

// TradeMode는 매매 모드를 정의합니다
type TradeMode string

const (
	DryRun TradeMode = "DRY-RUN" // 모의 체결
	Live   TradeMode = "LIVE"    // 실계좌 주문
)

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderStatus는 주문 처리 결과 상태를 정의합니다
type OrderStatus string

const (
	Simulated OrderStatus = "SIMULATED" // DRY-RUN 모의 체결
	Filled    OrderStatus = "FILLED"    // 실제 체결
	Blocked   OrderStatus = "BLOCKED"   // 장 마감으로 주문 차단
)

// Executed는 주문이 체결로 취급되는 상태인지 반환합니다.
// 포지션 기록과 일일 주문 횟수 집계는 이 상태에서만 일어납니다.
func (s OrderStatus) Executed() bool {
	return s == Simulated || s == Filled
}

// ResetPolicy는 일일 리스크 카운터의 초기화 시점을 정의합니다
type ResetPolicy string

const (
	ResetNever      ResetPolicy = "never"       // 프로세스 수명 동안 유지
	ResetMidnight   ResetPolicy = "midnight"    // KST 자정에 초기화
	ResetMarketOpen ResetPolicy = "market_open" // 장 시작(09:00 KST)에 초기화
)

// BlockerKind는 수동 진단에서 자동 주문을 막는 최상위 원인 분류입니다
type BlockerKind string

const (
	BlockerNone        BlockerKind = ""
	BlockerStrategy    BlockerKind = "전략"
	BlockerMarket      BlockerKind = "시장"
	BlockerRisk        BlockerKind = "리스크"
	BlockerCredentials BlockerKind = "인증정보"
)
