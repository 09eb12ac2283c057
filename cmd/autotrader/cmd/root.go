package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/engine"
	"github.com/assist-by/kstock/internal/exchange"
	"github.com/assist-by/kstock/internal/exchange/sim"
	"github.com/assist-by/kstock/internal/notification"
	"github.com/assist-by/kstock/internal/secrets"
	"github.com/assist-by/kstock/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "autotrader",
	Short: "한국투자증권 API 기반 무인 자동매매 엔진",
	Long: `autotrader는 한국투자증권 OpenAPI로 국내 주식을 무인 자동매매하는 엔진입니다.

제공 기능:
  - 다단계 점수 전략 (유니버스/예비돌파/돌파/확인)
  - 일일 손실/주문횟수/연속손실 쿨다운 리스크 게이트
  - DRY-RUN 모의 체결과 LIVE 실주문 모드
  - 카카오/텔레그램 알림과 SQLite/PostgreSQL 거래 기록
  - 헬스체크와 운영 제어 HTTP 서버`,
}

// Execute는 루트 커맨드를 실행합니다
func Execute() error {
	return rootCmd.Execute()
}

var dryRunFlag bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "전략 파일 설정과 무관하게 모의 체결 모드로 강제")
}

// bootstrap은 설정과 공용 의존성을 초기화합니다.
// 반환된 정리 함수는 저장소를 닫습니다.
func bootstrap() (*config.Config, *config.StrategyManager, *engine.Orchestrator, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("설정 로드 실패: %w", err)
	}

	mgr := config.NewStrategyManager(cfg.App.StrategyPath)
	if err := mgr.EnsureStrategyFile(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("전략 파일 준비 실패: %w", err)
	}

	applySecrets(cfg)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("저장소 열기 실패: %w", err)
	}

	notifier := notification.FromConfig(cfg.Notify)

	var opts []engine.Option
	if dryRunFlag {
		opts = append(opts, engine.WithGatewayFactory(func(strat *config.Strategy) exchange.Gateway {
			return sim.NewClient(cfg.KIS.Symbols)
		}))
	}

	eng := engine.New(cfg, mgr, st, notifier, opts...)
	cleanup := func() { _ = st.Close() }
	return cfg, mgr, eng, cleanup, nil
}

// applySecrets는 암호화 시크릿 파일의 값으로 비어 있는 인증 설정을 채웁니다.
// 마스터 패스프레이즈가 없으면 환경변수 설정만 사용합니다.
func applySecrets(cfg *config.Config) {
	if os.Getenv(secrets.EnvMasterPassphrase) == "" {
		return
	}

	store, err := secrets.NewStore("data/secrets.enc")
	if err != nil {
		log.Printf("시크릿 저장소 초기화 실패: %v", err)
		return
	}
	sec, err := store.Load()
	if err != nil {
		log.Printf("시크릿 로드 실패: %v", err)
		return
	}

	fill := func(dst *string, key string) {
		if *dst == "" && sec[key] != "" {
			*dst = sec[key]
		}
	}
	fill(&cfg.KIS.AppKey, "KIS_APPKEY")
	fill(&cfg.KIS.AppSecret, "KIS_APPSECRET")
	fill(&cfg.KIS.AccountNo, "KIS_ACCOUNT_NO")
	fill(&cfg.Notify.KakaoToken, "KAKAO_TOKEN")
	fill(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")
}
