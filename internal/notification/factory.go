package notification

import (
	"log"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/notification/kakao"
	"github.com/assist-by/kstock/internal/notification/telegram"
)

// FromConfig는 설정에 따라 알림 클라이언트를 생성합니다.
// 채널 설정이 비어 있거나 초기화에 실패하면 Nop을 반환합니다.
func FromConfig(cfg config.NotifyConfig) Notifier {
	switch cfg.Channel {
	case "none":
		return Nop{}
	case "kakao":
		if cfg.KakaoToken == "" {
			log.Println("카카오 토큰이 없어 알림을 비활성화합니다")
			return Nop{}
		}
		return kakao.NewClient(cfg.KakaoToken)
	case "telegram":
		if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
			log.Println("텔레그램 설정이 없어 알림을 비활성화합니다")
			return Nop{}
		}
		client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("텔레그램 초기화 실패, 알림을 비활성화합니다: %v", err)
			return Nop{}
		}
		return client
	default:
		log.Printf("알 수 없는 알림 채널 %q, 알림을 비활성화합니다", cfg.Channel)
		return Nop{}
	}
}
