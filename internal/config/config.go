package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config는 환경변수에서 로드되는 프로세스 설정입니다.
// 전략 파라미터는 strategy.yaml에서 따로 로드됩니다 (strategy.go 참조).
type Config struct {
	KIS    KISConfig
	Notify NotifyConfig
	Store  StoreConfig
	App    AppConfig
}

// KISConfig는 한국투자증권 API 접속 설정입니다.
type KISConfig struct {
	AppKey    string   `envconfig:"KIS_APPKEY"`
	AppSecret string   `envconfig:"KIS_APPSECRET"`
	AccountNo string   `envconfig:"KIS_ACCOUNT_NO"` // 예: 12345678-01
	BaseURL   string   `envconfig:"KIS_BASE_URL" default:"https://openapi.koreainvestment.com:9443"`
	MockOrder bool     `envconfig:"KIS_MOCK_ORDER" default:"false"`
	Symbols   []string `envconfig:"KIS_SYMBOLS" default:"005930,000660,035420,251270,068270,207940"`
}

// NotifyConfig는 알림 채널 설정입니다.
type NotifyConfig struct {
	Channel        string `envconfig:"NOTIFY_CHANNEL" default:"kakao"` // kakao, telegram, none
	KakaoToken     string `envconfig:"KAKAO_TOKEN"`
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// StoreConfig는 거래 저장소 설정입니다.
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, postgres
	DSN    string `envconfig:"STORE_DSN" default:"data/autotrade.db"`
}

// AppConfig는 애플리케이션 동작 설정입니다.
type AppConfig struct {
	StrategyPath  string  `envconfig:"STRATEGY_PATH" default:"strategy.yaml"`
	ServerAddr    string  `envconfig:"SERVER_ADDR" default:":8000"`
	EquityBaseKrw float64 `envconfig:"AUTOTRADE_EQUITY_BASE_KRW"` // 설정 파일의 equity_base_krw 보다 우선
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	switch cfg.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("지원하지 않는 저장소 드라이버: %s", cfg.Store.Driver)
	}

	switch cfg.Notify.Channel {
	case "kakao", "telegram", "none":
	default:
		return fmt.Errorf("지원하지 않는 알림 채널: %s", cfg.Notify.Channel)
	}

	if len(cfg.KIS.Symbols) == 0 {
		return fmt.Errorf("감시 종목(KIS_SYMBOLS)이 비어 있습니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일은 있으면 사용하고 없어도 에러로 취급하지 않습니다.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
