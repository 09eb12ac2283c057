package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/market"
)

func testLimits() config.RiskLimits {
	return config.RiskLimits{
		MaxOrdersPerDay:                8,
		MaxDailyLossKrw:                600000,
		MaxDailyLossPct:                2.5,
		EquityBaseKrw:                  30000000,
		MaxPositions:                   4,
		MaxBuyAmountPerTradeKrw:        1500000,
		CooldownAfterConsecutiveLosses: 3,
		CooldownMinutes:                20,
		ResetPolicy:                    domain.ResetNever,
	}
}

func TestCheckAdmissionOrderCountLimit(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	now := time.Now()

	for i := 0; i < 8; i++ {
		ok, _ := g.CheckAdmission(limits, now)
		require.True(t, ok, "주문 %d회째까지는 허용되어야 함", i)
		g.RecordEntry()
	}

	ok, reason := g.CheckAdmission(limits, now)
	assert.False(t, ok)
	assert.Contains(t, reason, "8/8")
}

func TestCheckAdmissionZeroCapSkipsCountCheck(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	limits.MaxOrdersPerDay = 0

	for i := 0; i < 20; i++ {
		g.RecordEntry()
	}

	ok, _ := g.CheckAdmission(limits, time.Now())
	assert.True(t, ok)
}

func TestCheckAdmissionAbsoluteLossLimit(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	now := time.Now()

	// 손실 60만원 도달
	g.RecordExit(-600000, limits, now)

	ok, reason := g.CheckAdmission(limits, now)
	assert.False(t, ok)
	assert.Contains(t, reason, "손실 한도")
}

func TestCheckAdmissionPercentLossUsesOverrideFirst(t *testing.T) {
	// 자본금 override 1,000만원, 손실 30만원 = 3.0% >= 한도 2.5%
	g := NewGovernor(10000000)
	limits := testLimits()
	limits.MaxDailyLossKrw = 0 // 절대 한도는 비활성
	now := time.Now()

	g.RecordExit(-300000, limits, now)

	ok, reason := g.CheckAdmission(limits, now)
	assert.False(t, ok)
	assert.Contains(t, reason, "손실률")

	// 설정 자본금(3,000만원) 기준이었다면 1.0%로 통과했을 것
	g2 := NewGovernor(0)
	g2.RecordExit(-300000, limits, now)
	ok2, _ := g2.CheckAdmission(limits, now)
	assert.True(t, ok2)
}

func TestCheckAdmissionPercentSkippedWhenEquityZero(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	limits.MaxDailyLossKrw = 0
	limits.EquityBaseKrw = 0
	now := time.Now()

	g.RecordExit(-10000000, limits, now)

	ok, _ := g.CheckAdmission(limits, now)
	assert.True(t, ok, "자본금이 0이면 비율 검사는 생략")
}

func TestConsecutiveLossesArmCooldown(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	now := time.Now()

	g.RecordExit(-1000, limits, now)
	g.RecordExit(-1000, limits, now)
	active, _ := g.InCooldown(now)
	assert.False(t, active, "2연속 손실로는 쿨다운이 걸리지 않아야 함")

	g.RecordExit(-1000, limits, now)
	active, until := g.InCooldown(now)
	assert.True(t, active)
	assert.WithinDuration(t, now.Add(20*time.Minute), until, time.Second)

	ok, reason := g.CheckAdmission(limits, now)
	assert.False(t, ok)
	assert.Contains(t, reason, "쿨다운")
	assert.Contains(t, reason, "초 남음")
}

func TestWinningExitResetsStreak(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	now := time.Now()

	g.RecordExit(-1000, limits, now)
	g.RecordExit(-1000, limits, now)
	g.RecordExit(5000, limits, now)
	g.RecordExit(-1000, limits, now)
	g.RecordExit(-1000, limits, now)

	active, _ := g.InCooldown(now)
	assert.False(t, active)
	assert.Equal(t, 2, g.Snapshot().ConsecutiveLosses)

	// 수익 청산은 일일 손실 누적에 더해지지 않음
	assert.Equal(t, -4000.0, g.Snapshot().DailyLossKrw)
}

func TestSetFatalDisablesUntilReEnabled(t *testing.T) {
	g := NewGovernor(0)
	g.Enable(true)

	g.SetFatal(errors.New("시세 조회 실패"))

	snap := g.Snapshot()
	assert.False(t, snap.Enabled)
	assert.Equal(t, "시세 조회 실패", snap.FatalError)

	// 운영자 재가동 시 치명 오류 기록도 함께 해제
	g.Enable(true)
	snap = g.Snapshot()
	assert.True(t, snap.Enabled)
	assert.Empty(t, snap.FatalError)
}

func TestMaybeResetNeverKeepsCounters(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	g.RecordEntry()
	g.RecordExit(-1000, limits, time.Now())

	g.MaybeReset(domain.ResetNever, time.Now().Add(48*time.Hour))

	snap := g.Snapshot()
	assert.Equal(t, 1, snap.DailyTradeCount)
	assert.Equal(t, -1000.0, snap.DailyLossKrw)
}

func TestMaybeResetMidnight(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	day1 := time.Date(2025, 8, 29, 14, 0, 0, 0, market.KST)
	g.lastReset = day1
	g.RecordEntry()
	g.RecordExit(-1000, limits, day1)

	// 같은 날에는 초기화되지 않음
	g.MaybeReset(domain.ResetMidnight, day1.Add(time.Hour))
	assert.Equal(t, 1, g.Snapshot().DailyTradeCount)

	// 다음 날 00:05 KST
	g.MaybeReset(domain.ResetMidnight, time.Date(2025, 8, 30, 0, 5, 0, 0, market.KST))
	snap := g.Snapshot()
	assert.Equal(t, 0, snap.DailyTradeCount)
	assert.Equal(t, 0.0, snap.DailyLossKrw)
	assert.Equal(t, 0, snap.ConsecutiveLosses)
}

func TestMaybeResetMarketOpen(t *testing.T) {
	g := NewGovernor(0)
	// 전날 장중에 마지막 초기화
	g.lastReset = time.Date(2025, 8, 28, 10, 0, 0, 0, market.KST)
	g.RecordEntry()

	// 다음 날 08:50 — 아직 09:00 경계 이전이므로 유지
	g.MaybeReset(domain.ResetMarketOpen, time.Date(2025, 8, 29, 8, 50, 0, 0, market.KST))
	assert.Equal(t, 1, g.Snapshot().DailyTradeCount)

	// 09:01 — 경계를 지나면 초기화
	g.MaybeReset(domain.ResetMarketOpen, time.Date(2025, 8, 29, 9, 1, 0, 0, market.KST))
	assert.Equal(t, 0, g.Snapshot().DailyTradeCount)
}

func TestResetDoesNotClearCooldown(t *testing.T) {
	g := NewGovernor(0)
	limits := testLimits()
	now := time.Date(2025, 8, 29, 23, 50, 0, 0, market.KST)

	g.RecordExit(-1000, limits, now)
	g.RecordExit(-1000, limits, now)
	g.RecordExit(-1000, limits, now)

	after := time.Date(2025, 8, 30, 0, 5, 0, 0, market.KST)
	g.MaybeReset(domain.ResetMidnight, after)

	active, _ := g.InCooldown(after)
	assert.True(t, active, "자정 초기화가 진행 중인 쿨다운을 해제해서는 안 됨")
}
