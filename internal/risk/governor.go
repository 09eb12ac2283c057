package risk

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/market"
)

// Snapshot은 리스크 상태의 읽기 전용 사본입니다.
// 상태 조회 서피스는 이 사본만 보고 내부 상태를 직접 만지지 않습니다.
type Snapshot struct {
	Enabled           bool      `json:"enabled"`
	FatalError        string    `json:"fatal_error,omitempty"`
	DailyTradeCount   int       `json:"daily_trades"`
	DailyLossKrw      float64   `json:"daily_loss_krw"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	CooldownUntil     time.Time `json:"cooldown_until,omitempty"`
}

// Governor는 리스크 상태 기계입니다. 일일 주문 횟수, 일일 손실(절대/비율),
// 연속 손실 쿨다운을 관리하며 모든 변경은 이 타입을 통해서만 일어납니다.
type Governor struct {
	mu sync.Mutex

	enabled           bool
	fatalError        string
	dailyTradeCount   int
	dailyLossKrw      float64 // 0 이하 누적값
	consecutiveLosses int
	cooldownUntil     time.Time

	equityOverride float64 // AUTOTRADE_EQUITY_BASE_KRW, 0이면 설정값 사용
	lastReset      time.Time
}

// NewGovernor는 리스크 상태 기계를 생성합니다.
// equityOverride가 0보다 크면 비율 손실 한도 계산에서 설정값보다 우선합니다.
func NewGovernor(equityOverride float64) *Governor {
	return &Governor{
		equityOverride: equityOverride,
		lastReset:      time.Now(),
	}
}

// Enable은 엔진 동작 여부를 설정합니다. 치명 오류 후 재가동은
// 운영자의 명시적 호출로만 가능합니다.
func (g *Governor) Enable(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = on
	if on {
		g.fatalError = ""
	}
	log.Printf("자동매매 상태 변경: enabled=%v", on)
}

// Enabled는 현재 가동 여부를 반환합니다
func (g *Governor) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// SetFatal은 치명 오류를 기록하고 엔진을 정지시킵니다.
// 운영자가 다시 활성화하기 전까지 종료 상태가 유지됩니다.
func (g *Governor) SetFatal(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = false
	g.fatalError = err.Error()
	log.Printf("치명 오류로 자동매매 정지: %v", err)
}

// CheckAdmission은 이번 사이클의 주문 가능 여부를 판정합니다.
// 고정 순서로 검사하며 첫 번째 탈락 사유를 반환합니다:
// 1) 일일 주문 횟수 한도  2) 일일 손실 절대 한도
// 3) 일일 손실 비율 한도  4) 쿨다운 활성 여부
func (g *Governor) CheckAdmission(limits config.RiskLimits, now time.Time) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if limits.MaxOrdersPerDay > 0 && g.dailyTradeCount >= limits.MaxOrdersPerDay {
		return false, fmt.Sprintf("일일 주문횟수 한도 도달 (%d/%d)", g.dailyTradeCount, limits.MaxOrdersPerDay)
	}

	if limits.MaxDailyLossKrw > 0 && g.dailyLossKrw <= -limits.MaxDailyLossKrw {
		return false, fmt.Sprintf("일일 손실 한도 도달 (%.0f원 / 한도 %.0f원)", -g.dailyLossKrw, limits.MaxDailyLossKrw)
	}

	if limits.MaxDailyLossPct > 0 {
		equity := g.equityOverride
		if equity <= 0 {
			equity = limits.EquityBaseKrw
		}
		if equity > 0 {
			lossPct := math.Abs(g.dailyLossKrw) / equity * 100
			if lossPct >= limits.MaxDailyLossPct {
				return false, fmt.Sprintf("일일 손실률 한도 도달 (%.2f%% / 한도 %.2f%%)", lossPct, limits.MaxDailyLossPct)
			}
		}
	}

	if g.cooldownUntil.After(now) {
		remain := int(g.cooldownUntil.Sub(now).Seconds())
		return false, fmt.Sprintf("연속 손실 쿨다운 중 (%d초 남음)", remain)
	}

	return true, ""
}

// InCooldown은 쿨다운 활성 여부와 해제 시각을 반환합니다
func (g *Governor) InCooldown(now time.Time) (bool, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cooldownUntil.After(now), g.cooldownUntil
}

// RecordEntry는 체결된 진입 주문을 일일 주문 횟수에 반영합니다
func (g *Governor) RecordEntry() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyTradeCount++
}

// RecordExit는 청산 손익을 반영합니다. 손실이면 일일 손실 누적과
// 연속 손실 횟수를 갱신하고, 연속 손실이 한도에 도달하면
// 프로세스 전역 쿨다운을 설정합니다. 종목 단위 쿨다운은 없습니다.
func (g *Governor) RecordExit(pnl float64, limits config.RiskLimits, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dailyLossKrw += math.Min(0, pnl)

	if pnl < 0 {
		g.consecutiveLosses++
	} else {
		g.consecutiveLosses = 0
	}

	if limits.CooldownAfterConsecutiveLosses > 0 &&
		g.consecutiveLosses >= limits.CooldownAfterConsecutiveLosses {
		g.cooldownUntil = now.Add(time.Duration(limits.CooldownMinutes) * time.Minute)
		log.Printf("연속 손실 %d회, %d분 쿨다운 진입", g.consecutiveLosses, limits.CooldownMinutes)
	}
}

// MaybeReset은 초기화 정책에 따라 일일 카운터를 초기화합니다.
// never: 프로세스 수명 동안 유지 (기존 동작과 동일)
// midnight: KST 날짜가 바뀌면 초기화
// market_open: 장 시작(09:00 KST) 경계를 지나면 초기화
// 이미 설정된 쿨다운은 초기화 대상이 아닙니다.
func (g *Governor) MaybeReset(policy domain.ResetPolicy, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kst := now.In(market.KST)
	var due bool

	switch policy {
	case domain.ResetMidnight:
		last := g.lastReset.In(market.KST)
		due = last.Year() != kst.Year() || last.YearDay() != kst.YearDay()
	case domain.ResetMarketOpen:
		boundary := time.Date(kst.Year(), kst.Month(), kst.Day(), 9, 0, 0, 0, market.KST)
		if kst.Before(boundary) {
			boundary = boundary.AddDate(0, 0, -1)
		}
		due = g.lastReset.Before(boundary)
	default:
		return
	}

	if !due {
		return
	}

	log.Printf("일일 리스크 카운터 초기화 (policy=%s, 주문 %d회, 손실 %.0f원)",
		policy, g.dailyTradeCount, -g.dailyLossKrw)
	g.dailyTradeCount = 0
	g.dailyLossKrw = 0
	g.consecutiveLosses = 0
	g.lastReset = now
}

// Snapshot은 현재 리스크 상태의 사본을 반환합니다
func (g *Governor) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Enabled:           g.enabled,
		FatalError:        g.fatalError,
		DailyTradeCount:   g.dailyTradeCount,
		DailyLossKrw:      g.dailyLossKrw,
		ConsecutiveLosses: g.consecutiveLosses,
		CooldownUntil:     g.cooldownUntil,
	}
}
