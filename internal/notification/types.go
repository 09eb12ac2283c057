package notification

import "log"

// Notifier는 운영자 알림 전송 인터페이스입니다.
// 전송은 최선 노력(best-effort)이며 실패는 로그로만 남기고 전파하지 않습니다.
type Notifier interface {
	// Send는 메시지를 전송하고 성공 여부를 반환합니다
	Send(message string) bool
}

// Nop은 알림 채널이 설정되지 않았을 때 사용하는 무동작 구현입니다
type Nop struct{}

// Send는 메시지를 버리고 false를 반환합니다
func (Nop) Send(message string) bool {
	log.Printf("알림 채널 미설정, 메시지 생략: %s", message)
	return false
}
