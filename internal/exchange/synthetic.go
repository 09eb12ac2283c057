package exchange

import (
	"math/rand"

	"github.com/assist-by/kstock/internal/domain"
)

// 합성 시세 생성. DRY-RUN은 모든 필드를, LIVE는 가격을 제외한
// 미시구조 필드(거래량배율/변동성/체결강도/스프레드/추세)를 여기서 만듭니다.
// DegradedPrice는 시세 조회 실패로 가격까지 합성으로 대체된 경우에만 켜집니다.

// SyntheticPrice는 국내 중대형주 범위의 합성 가격을 생성합니다
func SyntheticPrice(rng *rand.Rand) float64 {
	return 15000 + rng.Float64()*(120000-15000)
}

// SyntheticQuote는 주어진 가격에 합성 미시구조 필드를 채운 시세를 만듭니다
func SyntheticQuote(rng *rand.Rand, symbol string, price float64, degraded bool) domain.Quote {
	return domain.Quote{
		Symbol:            symbol,
		Price:             price,
		VolumeRatio:       0.8 + rng.Float64()*(3.8-0.8),
		VolatilityPct:     0.5 + rng.Float64()*(4.5-0.5),
		ExecutionStrength: 80 + rng.Float64()*(140-80),
		SpreadPct:         0.1 + rng.Float64()*(1.5-0.1),
		TrendSlope:        -0.4 + rng.Float64()*(0.8-(-0.4)),
		DegradedPrice:     degraded,
	}
}
