package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// tokenRefreshMargin만큼 만료가 남았으면 미리 갱신합니다
const tokenRefreshMargin = 60 * time.Second

// accessToken은 캐시된 접근 토큰을 반환하고, 없거나 만료가 임박하면
// 새로 발급합니다. 뮤텍스를 발급 구간 전체에 걸어 한 만료 주기에
// 토큰 발급이 최대 한 번만 일어나도록 보장합니다.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := time.Now()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.appKey,
		"appsecret":  c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("토큰 요청 직렬화 실패: %w", err)
	}

	status, data, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/oauth2/tokenP",
		map[string]string{"content-type": "application/json"}, payload)
	if err != nil {
		return "", &Error{Op: "토큰 발급", Err: err}
	}

	token := strField(data, "access_token")
	if status != http.StatusOK || token == "" {
		return "", &Error{Op: "토큰 발급", Err: fmt.Errorf("status=%d, rt_cd=%s, msg1=%s",
			status, strField(data, "rt_cd"), strField(data, "msg1"))}
	}

	expiresSec := 3600.0
	if v, ok := data["expires_in"].(float64); ok && v > 0 {
		expiresSec = v
	}

	c.token = token
	c.tokenExpiry = now.Add(time.Duration(expiresSec) * time.Second)
	return c.token, nil
}
