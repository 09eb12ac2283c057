// internal/engine/engine.go
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/exchange"
	"github.com/assist-by/kstock/internal/exchange/kis"
	"github.com/assist-by/kstock/internal/exchange/sim"
	"github.com/assist-by/kstock/internal/market"
	"github.com/assist-by/kstock/internal/notification"
	"github.com/assist-by/kstock/internal/position"
	"github.com/assist-by/kstock/internal/risk"
	"github.com/assist-by/kstock/internal/store"
	"github.com/assist-by/kstock/internal/strategy"
)

// GatewayFactory는 전략 모드에 맞는 주문 게이트웨이를 생성합니다.
// 매 사이클 시작 시 호출되어 mode 변경이 다음 tick부터 반영됩니다.
type GatewayFactory func(strat *config.Strategy) exchange.Gateway

// Snapshot은 엔진 상태 요약입니다. 상태 조회 API가 그대로 직렬화합니다.
type Snapshot struct {
	Enabled           bool    `json:"enabled"`
	FatalError        string  `json:"fatal_error,omitempty"`
	OpenPositionCount int     `json:"open_positions"`
	DailyTradeCount   int     `json:"daily_trades"`
	DailyLossKrw      float64 `json:"daily_loss_krw"`
	Timestamp         string  `json:"timestamp"`
}

// SymbolDiagnosis는 수동 진단에서 한 종목의 평가 내역입니다
type SymbolDiagnosis struct {
	Symbol        string             `json:"symbol"`
	Price         float64            `json:"price"`
	DegradedPrice bool               `json:"degraded_price,omitempty"`
	Score         domain.ScoreResult `json:"score"`
	Blocker       domain.BlockerKind `json:"blocker,omitempty"`
}

// Diagnosis는 수동 진단의 전체 결과입니다.
// "왜 지금 자동 주문이 안 나가는가"를 단계별로 보여줍니다.
type Diagnosis struct {
	Market          domain.MarketStatus `json:"market"`
	RiskOK          bool                `json:"risk_ok"`
	RiskReason      string              `json:"risk_reason,omitempty"`
	CredentialsOK   bool                `json:"credentials_ok"`
	CanAutoOrderNow bool                `json:"can_auto_order_now"`
	Symbols         []SymbolDiagnosis   `json:"symbols"`
}

// Orchestrator는 자동매매 엔진 본체입니다. 설정 리로드, 시세 수집,
// 신호 평가, 진입/청산, 리스크 반영을 한 사이클로 묶어 실행합니다.
type Orchestrator struct {
	cfg         *config.Config
	strategyMgr *config.StrategyManager
	evaluator   *strategy.StageStrategy
	store       store.Store
	notifier    notification.Notifier
	governor    *risk.Governor
	book        *position.Book

	gatewayFn GatewayFactory
	clock     market.Clock
	now       func() time.Time
}

// Option은 Orchestrator 생성 옵션입니다
type Option func(*Orchestrator)

// WithGatewayFactory는 게이트웨이 생성 함수를 지정합니다
func WithGatewayFactory(fn GatewayFactory) Option {
	return func(o *Orchestrator) {
		o.gatewayFn = fn
	}
}

// WithClock은 장 상태 판정 함수를 지정합니다
func WithClock(clock market.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithNow는 현재 시각 함수를 지정합니다
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New는 엔진을 생성합니다. 시작 시 자동매매는 비활성 상태입니다.
func New(cfg *config.Config, strategyMgr *config.StrategyManager, st store.Store, notifier notification.Notifier, opts ...Option) *Orchestrator {
	governor := risk.NewGovernor(cfg.App.EquityBaseKrw)
	o := &Orchestrator{
		cfg:         cfg,
		strategyMgr: strategyMgr,
		evaluator:   strategy.New(),
		store:       st,
		notifier:    notifier,
		governor:    governor,
		book:        position.NewBook(st, governor, notifier),
		clock:       market.Status,
		now:         time.Now,
	}
	o.gatewayFn = o.buildGateway

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// buildGateway는 전략 모드에 따라 게이트웨이를 생성합니다.
// LIVE가 아니면 항상 모의 게이트웨이를 사용합니다.
func (o *Orchestrator) buildGateway(strat *config.Strategy) exchange.Gateway {
	if strat.Mode == domain.Live {
		return kis.NewClient(
			o.cfg.KIS.AppKey,
			o.cfg.KIS.AppSecret,
			o.cfg.KIS.AccountNo,
			o.cfg.KIS.Symbols,
			kis.WithBaseURL(o.cfg.KIS.BaseURL),
			kis.WithMockOrder(o.cfg.KIS.MockOrder),
			kis.WithClock(o.clock),
		)
	}
	return sim.NewClient(o.cfg.KIS.Symbols)
}

// Enable은 자동매매 가동 여부를 설정합니다
func (o *Orchestrator) Enable(on bool) {
	o.governor.Enable(on)
}

// Enabled는 현재 가동 여부를 반환합니다
func (o *Orchestrator) Enabled() bool {
	return o.governor.Enabled()
}

// ScanInterval은 현재 전략 파일의 스캔 주기를 반환합니다.
// 로드에 실패하면 기본 전략의 주기를 사용합니다.
func (o *Orchestrator) ScanInterval() time.Duration {
	strat, err := o.strategyMgr.Load()
	if err != nil {
		return config.DefaultStrategy().ScanInterval()
	}
	return strat.ScanInterval()
}

// Execute는 스케줄러 Task 인터페이스 구현입니다
func (o *Orchestrator) Execute(ctx context.Context) error {
	return o.Tick(ctx)
}

// Tick은 한 사이클을 실행합니다. 사이클 순서는 고정입니다:
// 전략 리로드 → 카운터 초기화 검사 → 가동 여부 → 장 상태 →
// 쿨다운 → 리스크 게이트 → 시세/평가/진입 → 청산 관리.
// 시세 수집 이후의 오류는 치명 오류로 기록하고 엔진을 정지시킵니다.
func (o *Orchestrator) Tick(ctx context.Context) error {
	strat, err := o.strategyMgr.Load()
	if err != nil {
		return fmt.Errorf("전략 설정 로드 실패: %w", err)
	}

	now := o.now()
	o.governor.MaybeReset(strat.RiskLimits.ResetPolicy, now)

	if !o.governor.Enabled() {
		return nil
	}

	status := o.clock(now)
	if !status.CanPlaceOrder {
		log.Printf("주문 차단: %s (다음 개장: %s)",
			status.Reason, market.NextOpen(now).Format("2006-01-02 15:04"))
	}

	if in, until := o.governor.InCooldown(now); in {
		log.Printf("쿨다운 중, 사이클 건너뜀 (해제: %s)", until.In(market.KST).Format("15:04:05"))
		return nil
	}

	if ok, reason := o.governor.CheckAdmission(strat.RiskLimits, now); !ok {
		log.Printf("리스크 한도 도달, 매매 일시중지: %s", reason)
		return nil
	}

	if err := o.runCycle(ctx, strat, status, now); err != nil {
		o.governor.SetFatal(err)
		o.notifier.Send(fmt.Sprintf("[치명오류] 자동매매 중지: %v", err))
		return err
	}
	return nil
}

func (o *Orchestrator) runCycle(ctx context.Context, strat *config.Strategy, status domain.MarketStatus, now time.Time) error {
	gw := o.gatewayFn(strat)

	quotes, err := gw.FetchQuotes(ctx)
	if err != nil {
		return fmt.Errorf("시세 수집 실패: %w", err)
	}

	for _, q := range quotes {
		result := o.evaluator.Evaluate(q, strat)

		stageJSON, err := json.Marshal(result.StageResults)
		if err != nil {
			return fmt.Errorf("단계 결과 직렬화 실패: %w", err)
		}
		verdict := "FAIL"
		if result.Passed {
			verdict = "PASS"
		}
		if err := o.store.RecordSignal(ctx, store.SignalRecord{
			Symbol:      q.Symbol,
			TotalScore:  result.TotalScore,
			StageScores: string(stageJSON),
			Verdict:     verdict,
			Reason:      result.Reason,
		}); err != nil {
			return fmt.Errorf("신호 기록 실패: %w", err)
		}

		if result.Passed && status.CanPlaceOrder {
			if err := o.book.TryEnter(ctx, gw, q, strat.RiskLimits, result.Reason); err != nil {
				return err
			}
		}
	}

	return o.book.ManageExits(ctx, gw, quotes, strat, now)
}

// Snapshot은 엔진 상태 요약을 반환합니다
func (o *Orchestrator) Snapshot() Snapshot {
	rs := o.governor.Snapshot()
	return Snapshot{
		Enabled:           rs.Enabled,
		FatalError:        rs.FatalError,
		OpenPositionCount: o.book.Count(),
		DailyTradeCount:   rs.DailyTradeCount,
		DailyLossKrw:      rs.DailyLossKrw,
		Timestamp:         o.now().UTC().Format(time.RFC3339),
	}
}

// RunManualDiagnosis는 현재 시점의 자동 주문 가능 여부를 종목별로 진단합니다.
// 주문을 내지 않고 평가만 수행하며, 종목마다 자동 주문을 막는
// 최상위 원인(전략/시장/리스크/인증정보)을 분류합니다.
func (o *Orchestrator) RunManualDiagnosis(ctx context.Context) (*Diagnosis, error) {
	strat, err := o.strategyMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("전략 설정 로드 실패: %w", err)
	}

	now := o.now()
	status := o.clock(now)
	riskOK, riskReason := o.governor.CheckAdmission(strat.RiskLimits, now)
	credsOK := strat.Mode != domain.Live ||
		(o.cfg.KIS.AppKey != "" && o.cfg.KIS.AppSecret != "" && o.cfg.KIS.AccountNo != "")

	gw := o.gatewayFn(strat)
	quotes, err := gw.FetchQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("시세 수집 실패: %w", err)
	}

	diag := &Diagnosis{
		Market:          status,
		RiskOK:          riskOK,
		RiskReason:      riskReason,
		CredentialsOK:   credsOK,
		CanAutoOrderNow: status.CanPlaceOrder && riskOK && credsOK,
		Symbols:         make([]SymbolDiagnosis, 0, len(quotes)),
	}

	for _, q := range quotes {
		result := o.evaluator.Evaluate(q, strat)
		diag.Symbols = append(diag.Symbols, SymbolDiagnosis{
			Symbol:        q.Symbol,
			Price:         q.Price,
			DegradedPrice: q.DegradedPrice,
			Score:         result,
			Blocker:       classifyBlocker(result.Passed, status, riskOK, credsOK),
		})
	}
	return diag, nil
}

// classifyBlocker는 자동 주문을 막는 최상위 원인을 하나 고릅니다.
// 전략 탈락이 가장 먼저이고, 그다음 시장, 리스크, 인증정보 순입니다.
func classifyBlocker(strategyPass bool, status domain.MarketStatus, riskOK, credsOK bool) domain.BlockerKind {
	switch {
	case !strategyPass:
		return domain.BlockerStrategy
	case !status.CanPlaceOrder:
		return domain.BlockerMarket
	case !riskOK:
		return domain.BlockerRisk
	case !credsOK:
		return domain.BlockerCredentials
	default:
		return domain.BlockerNone
	}
}

// ManualOrder는 운영자의 수동 단건 주문을 실행합니다.
// 리스크 게이트와 전략 평가를 거치지 않으며 포지션 장부에도 반영하지 않습니다.
func (o *Orchestrator) ManualOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error) {
	strat, err := o.strategyMgr.Load()
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("전략 설정 로드 실패: %w", err)
	}

	gw := o.gatewayFn(strat)
	result, err := gw.PlaceOrder(ctx, order)
	if err != nil {
		return result, err
	}
	log.Printf("수동 주문 결과: %s %s %d주 → %s", order.Side, order.Symbol, order.Qty, result.Status)
	return result, nil
}
