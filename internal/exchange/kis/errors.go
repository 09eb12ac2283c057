package kis

import (
	"errors"
	"fmt"
)

// Error는 KIS API 호출의 일시 장애(네트워크/HTTP/응답 코드)를 나타냅니다.
// 게이트웨이 재시도 정책은 이 타입만 재시도 대상으로 봅니다.
type Error struct {
	Op  string // 실패한 작업 (토큰 발급, 해시키, 주문 등)
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("KIS %s 실패: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrMissingCredentials는 LIVE 호출에 필요한 인증정보 누락입니다.
// 설정 오류이므로 재시도하지 않고 즉시 실패합니다.
var ErrMissingCredentials = errors.New("LIVE 호출에 필요한 인증정보가 없습니다 (KIS_APPKEY/KIS_APPSECRET/KIS_ACCOUNT_NO)")

// IsTransient는 재시도 가능한 일시 장애인지 판별합니다
func IsTransient(err error) bool {
	var ke *Error
	return errors.As(err, &ke)
}
