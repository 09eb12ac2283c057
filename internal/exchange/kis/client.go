// internal/exchange/kis/client.go
package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/assist-by/kstock/internal/exchange"
	"github.com/assist-by/kstock/internal/market"
)

const defaultBaseURL = "https://openapi.koreainvestment.com:9443"

// Client는 한국투자증권 오픈API LIVE 게이트웨이입니다
type Client struct {
	appKey    string
	appSecret string
	accountNo string // 예: 12345678-01
	baseURL   string
	mockOrder bool
	symbols   []string

	httpClient *http.Client
	limiter    *rate.Limiter
	retry      exchange.RetryPolicy
	clock      market.Clock
	rng        *rand.Rand

	// 토큰 캐시. 갱신은 뮤텍스로 단일화되어 같은 프로세스에서
	// 중복 토큰 발급이 일어나지 않습니다.
	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다 (모의투자 서버, 테스트 서버 등)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithMockOrder는 실제 주문 대신 모의 성공 응답을 반환하는
// 스모크 테스트 모드를 설정합니다
func WithMockOrder(mock bool) ClientOption {
	return func(c *Client) {
		c.mockOrder = mock
	}
}

// WithClock은 장 운영 상태 판정 함수를 교체합니다 (테스트용)
func WithClock(clock market.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithRetryPolicy는 재시도 정책을 교체합니다
func WithRetryPolicy(policy exchange.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithSeed는 합성 시세의 난수 시드를 고정합니다 (테스트용)
func WithSeed(seed int64) ClientOption {
	return func(c *Client) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// NewClient는 KIS LIVE 게이트웨이를 생성합니다
func NewClient(appKey, appSecret, accountNo string, symbols []string, opts ...ClientOption) *Client {
	c := &Client{
		appKey:     appKey,
		appSecret:  appSecret,
		accountNo:  accountNo,
		baseURL:    defaultBaseURL,
		symbols:    symbols,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		// KIS 초당 호출 한도(20건)보다 보수적으로 제한
		limiter: rate.NewLimiter(rate.Limit(15), 5),
		clock:   market.Status,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.retry = exchange.DefaultRetryPolicy(IsTransient)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// validateCredentials는 LIVE 호출에 필요한 인증정보를 확인합니다
func (c *Client) validateCredentials() error {
	if c.appKey == "" || c.appSecret == "" || c.accountNo == "" {
		return ErrMissingCredentials
	}
	return nil
}

// splitAccountNo는 계좌번호를 종합계좌번호(CANO)와
// 상품코드(ACNT_PRDT_CD)로 분리합니다
func (c *Client) splitAccountNo() (string, string, error) {
	raw := ""
	for _, r := range c.accountNo {
		if r != '-' {
			raw += string(r)
		}
	}
	if len(raw) < 10 {
		return "", "", fmt.Errorf("계좌번호 형식 오류: 12345678-01 형태이어야 합니다")
	}
	return raw[:8], raw[8:10], nil
}

// doJSON은 요청을 실행하고 응답 본문을 JSON으로 파싱합니다.
// 호출량 제한을 먼저 통과해야 하며, 본문 파싱 실패는 빈 맵으로 대체합니다.
func (c *Client) doJSON(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("요청 생성 실패: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = map[string]any{"raw_text": string(raw), "rt_cd": "", "msg1": "invalid json"}
	}
	return resp.StatusCode, data, nil
}

func strField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}
