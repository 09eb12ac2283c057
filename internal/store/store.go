// internal/store/store.go
package store

import (
	"context"
	"fmt"
)

// SignalRecord는 한 사이클에서 평가된 종목 신호의 저장 형태입니다
type SignalRecord struct {
	Symbol      string
	TotalScore  float64
	StageScores string // 단계별 결과 JSON 직렬화
	Verdict     string // PASS 또는 FAIL
	Reason      string
}

// Store는 신호/트레이드 기록 저장소 인터페이스입니다.
// 트레이드는 진입 시 OPEN으로 생성되고 청산 시 손익이 계산되어 CLOSED로 갱신됩니다.
type Store interface {
	RecordSignal(ctx context.Context, sig SignalRecord) error
	OpenTrade(ctx context.Context, symbol string, qty int, entryPrice float64, reason string) (int64, error)
	CloseTrade(ctx context.Context, tradeID int64, exitPrice, fees float64, reason string) error
	Close() error
}

// Open은 드라이버 이름에 따라 저장소를 생성합니다
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("지원하지 않는 저장소 드라이버: %s", driver)
	}
}
