package exchange

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy는 게이트웨이 호출의 재시도 정책입니다.
// 암묵적 데코레이터 대신 호출 지점에 명시적으로 적용합니다.
type RetryPolicy struct {
	MaxAttempts int           // 총 시도 횟수 (첫 시도 포함)
	BaseDelay   time.Duration // 첫 재시도 전 대기 시간
	MaxDelay    time.Duration // 대기 시간 상한
	Retryable   func(error) bool
}

// DefaultRetryPolicy는 게이트웨이 기본 정책입니다: 3회 시도,
// 1초에서 시작해 8초로 제한되는 지수 백오프.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    8 * time.Second,
		Retryable:   retryable,
	}
}

// Do는 fn을 정책에 따라 실행합니다. Retryable이 false를 반환하는 오류는
// 즉시 올라가고, 일시 장애는 백오프 후 재시도합니다.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0 // 횟수로만 제한

	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		if attempt < p.MaxAttempts {
			log.Printf("%s 실패 (attempt %d/%d): %v", operation, attempt, p.MaxAttempts, err)
		}
		return err
	}

	retries := uint64(0)
	if p.MaxAttempts > 1 {
		retries = uint64(p.MaxAttempts - 1)
	}

	return backoff.Retry(wrapped, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), retries))
}
