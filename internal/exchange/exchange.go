// internal/exchange/exchange.go
package exchange

import (
	"context"

	"github.com/assist-by/kstock/internal/domain"
)

// Gateway는 브로커와의 상호작용을 위한 인터페이스입니다.
// DRY-RUN(sim)과 LIVE(kis) 두 구현이 있으며 생성 시점에 선택됩니다.
type Gateway interface {
	// FetchQuotes는 감시 종목 전체의 시세 스냅샷을 조회합니다
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PlaceOrder는 단건 주문을 제출합니다.
	// 장 마감으로 차단된 주문은 에러가 아니라 BLOCKED 결과로 반환됩니다.
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error)
}
