package config

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/assist-by/kstock/internal/domain"
)

// Strategy는 strategy.yaml의 전체 스냅샷입니다.
// 매 tick 시작 시점에 통째로 다시 로드되며 사이클 내에서는 불변으로 취급합니다.
type Strategy struct {
	Mode                domain.TradeMode `yaml:"mode"`
	ScanIntervalSeconds int              `yaml:"scan_interval_seconds"`
	RiskLimits          RiskLimits       `yaml:"risk_limits"`
	ScoringWeights      ScoringWeights   `yaml:"scoring_weights"`
	Stages              Stages           `yaml:"stages"`
}

// RiskLimits는 리스크 게이트 한도입니다. 0은 해당 한도 미사용을 의미합니다.
type RiskLimits struct {
	MaxOrdersPerDay                int                `yaml:"max_orders_per_day"`
	MaxDailyLossKrw                float64            `yaml:"max_daily_loss_krw"`
	MaxDailyLossPct                float64            `yaml:"max_daily_loss_pct"`
	EquityBaseKrw                  float64            `yaml:"equity_base_krw"`
	MaxPositions                   int                `yaml:"max_positions"`
	MaxBuyAmountPerTradeKrw        float64            `yaml:"max_buy_amount_per_trade_krw"`
	CooldownAfterConsecutiveLosses int                `yaml:"cooldown_after_consecutive_losses"`
	CooldownMinutes                int                `yaml:"cooldown_minutes"`
	ResetPolicy                    domain.ResetPolicy `yaml:"reset_policy"`
}

// ScoringWeights는 단계별 배점입니다
type ScoringWeights struct {
	Universe     float64 `yaml:"universe"`
	PreBreakout  float64 `yaml:"pre_breakout"`
	Trigger      float64 `yaml:"trigger"`
	Confirmation float64 `yaml:"confirmation"`
}

// Stages는 단계별 임계값 파라미터입니다
type Stages struct {
	Universe     UniverseStage     `yaml:"universe"`
	PreBreakout  PreBreakoutStage  `yaml:"pre_breakout"`
	Trigger      TriggerStage      `yaml:"trigger"`
	Confirmation ConfirmationStage `yaml:"confirmation"`
	Exit         ExitStage         `yaml:"exit"`
}

type UniverseStage struct {
	MaxSpreadPct float64 `yaml:"max_spread_pct"`
}

type PreBreakoutStage struct {
	VolumeSpikeRatioMin      float64 `yaml:"volume_spike_ratio_min"`
	IntradayVolatilityPctMin float64 `yaml:"intraday_volatility_pct_min"`
}

type TriggerStage struct {
	BreakoutZone1Pct float64 `yaml:"breakout_zone_1_pct"`
	BreakoutZone2Pct float64 `yaml:"breakout_zone_2_pct"`
	BreakoutZone3Pct float64 `yaml:"breakout_zone_3_pct"`
}

type ConfirmationStage struct {
	ExecutionStrengthMin float64 `yaml:"execution_strength_min"`
	SpreadPctMax         float64 `yaml:"spread_pct_max"`
	TrendSlopeMin        float64 `yaml:"trend_slope_min"`
}

type ExitStage struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

// ScanInterval은 스캔 주기를 반환합니다. 하한은 5초입니다.
func (s *Strategy) ScanInterval() time.Duration {
	sec := s.ScanIntervalSeconds
	if sec < 5 {
		sec = 5
	}
	return time.Duration(sec) * time.Second
}

// ValidateStrategy는 전략 스냅샷의 기본 일관성을 검증합니다.
func ValidateStrategy(s *Strategy) error {
	if s.Mode != domain.DryRun && s.Mode != domain.Live {
		return fmt.Errorf("mode는 DRY-RUN 또는 LIVE 이어야 합니다: %q", s.Mode)
	}
	if s.RiskLimits.MaxPositions <= 0 {
		return fmt.Errorf("risk_limits.max_positions는 1 이상이어야 합니다")
	}
	if s.RiskLimits.MaxBuyAmountPerTradeKrw <= 0 {
		return fmt.Errorf("risk_limits.max_buy_amount_per_trade_krw는 0보다 커야 합니다")
	}
	if s.Stages.Exit.StopLossPct <= 0 || s.Stages.Exit.TakeProfitPct <= 0 {
		return fmt.Errorf("stages.exit의 손절/익절 퍼센트는 0보다 커야 합니다")
	}
	t := s.Stages.Trigger
	if !(t.BreakoutZone1Pct <= t.BreakoutZone2Pct && t.BreakoutZone2Pct <= t.BreakoutZone3Pct) {
		return fmt.Errorf("trigger 구간은 zone1 <= zone2 <= zone3 순서이어야 합니다")
	}
	switch s.RiskLimits.ResetPolicy {
	case domain.ResetNever, domain.ResetMidnight, domain.ResetMarketOpen:
	default:
		return fmt.Errorf("지원하지 않는 reset_policy: %q", s.RiskLimits.ResetPolicy)
	}
	return nil
}

// StrategyManager는 strategy.yaml의 로드/저장을 담당합니다.
// 엔진의 핫리로드와 UI의 저장이 경합할 수 있어 뮤텍스로 직렬화합니다.
type StrategyManager struct {
	path string
	mu   sync.Mutex
}

// NewStrategyManager는 지정한 경로의 전략 관리자를 생성합니다
func NewStrategyManager(path string) *StrategyManager {
	return &StrategyManager{path: path}
}

// Load는 전략 스냅샷을 읽습니다. 알 수 없는 필드는 로드 시점에 거부합니다.
func (m *StrategyManager) Load() (*Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("전략 파일 읽기 실패: %w", err)
	}

	var s Strategy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("전략 파일 파싱 실패: %w", err)
	}

	if s.RiskLimits.ResetPolicy == "" {
		s.RiskLimits.ResetPolicy = domain.ResetNever
	}

	if err := ValidateStrategy(&s); err != nil {
		return nil, fmt.Errorf("전략 설정 검증 실패: %w", err)
	}

	return &s, nil
}

// Save는 전략 스냅샷을 통째로 저장합니다. 부분 저장은 지원하지 않습니다.
func (m *StrategyManager) Save(s *Strategy) error {
	if err := ValidateStrategy(s); err != nil {
		return fmt.Errorf("전략 설정 검증 실패: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("전략 직렬화 실패: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("전략 파일 저장 실패: %w", err)
	}
	return nil
}

// DefaultStrategy는 초기 설치 시 기록되는 기본 전략입니다
func DefaultStrategy() *Strategy {
	return &Strategy{
		Mode:                domain.DryRun,
		ScanIntervalSeconds: 60,
		RiskLimits: RiskLimits{
			MaxOrdersPerDay:                8,
			MaxDailyLossKrw:                600000,
			MaxDailyLossPct:                2.5,
			EquityBaseKrw:                  30000000,
			MaxPositions:                   4,
			MaxBuyAmountPerTradeKrw:        1500000,
			CooldownAfterConsecutiveLosses: 3,
			CooldownMinutes:                20,
			ResetPolicy:                    domain.ResetNever,
		},
		ScoringWeights: ScoringWeights{
			Universe:     20,
			PreBreakout:  25,
			Trigger:      30,
			Confirmation: 25,
		},
		Stages: Stages{
			Universe:     UniverseStage{MaxSpreadPct: 1.2},
			PreBreakout:  PreBreakoutStage{VolumeSpikeRatioMin: 2.2, IntradayVolatilityPctMin: 1.8},
			Trigger:      TriggerStage{BreakoutZone1Pct: 0.6, BreakoutZone2Pct: 1.2, BreakoutZone3Pct: 2.0},
			Confirmation: ConfirmationStage{ExecutionStrengthMin: 105, SpreadPctMax: 0.9, TrendSlopeMin: 0.2},
			Exit:         ExitStage{StopLossPct: 1.8, TakeProfitPct: 4.2},
		},
	}
}

// EnsureStrategyFile은 전략 파일이 없으면 기본값으로 생성합니다
func (m *StrategyManager) EnsureStrategyFile() error {
	if _, err := os.Stat(m.path); err == nil {
		return nil
	}
	return m.Save(DefaultStrategy())
}
