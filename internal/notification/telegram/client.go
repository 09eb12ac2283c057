// internal/notification/telegram/client.go
package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client는 텔레그램 봇 알림 클라이언트입니다.
// 카카오 대신 사용할 수 있는 대체 채널입니다.
type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient는 텔레그램 알림 클라이언트를 생성합니다
func NewClient(token string, chatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Client{bot: bot, chatID: chatID}, nil
}

// Send는 텍스트 메시지를 전송합니다. 실패는 로그로만 남깁니다.
func (c *Client) Send(message string) bool {
	msg := tgbotapi.NewMessage(c.chatID, message)
	if _, err := c.bot.Send(msg); err != nil {
		log.Printf("텔레그램 알림 전송 실패: %v", err)
		return false
	}
	return true
}
