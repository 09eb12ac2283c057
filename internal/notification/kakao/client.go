// internal/notification/kakao/client.go
package kakao

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const sendURL = "https://kapi.kakao.com/v2/api/talk/memo/default/send"

// Client는 카카오톡 "나에게 보내기" 알림 클라이언트입니다
type Client struct {
	token      string
	httpClient *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient는 카카오 알림 클라이언트를 생성합니다
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send는 텍스트 메시지를 전송합니다. 토큰이 없거나 전송에 실패하면
// 로그만 남기고 false를 반환합니다.
func (c *Client) Send(message string) bool {
	if c.token == "" {
		log.Printf("카카오 토큰 미설정, 메시지 생략")
		return false
	}

	template, err := json.Marshal(map[string]any{
		"object_type": "text",
		"text":        message,
		"link":        map[string]string{"web_url": "https://example.com"},
	})
	if err != nil {
		log.Printf("카카오 메시지 직렬화 실패: %v", err)
		return false
	}

	form := url.Values{}
	form.Set("template_object", string(template))

	req, err := http.NewRequest(http.MethodPost, sendURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("카카오 요청 생성 실패: %v", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("카카오 알림 전송 실패: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("카카오 알림 실패: status=%d", resp.StatusCode)
		return false
	}
	return true
}
