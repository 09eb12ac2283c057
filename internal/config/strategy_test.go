package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kstock/internal/domain"
)

func writeStrategyFile(t *testing.T, content string) *StrategyManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewStrategyManager(path)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	mgr := NewStrategyManager(filepath.Join(t.TempDir(), "strategy.yaml"))
	require.NoError(t, mgr.Save(DefaultStrategy()))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultStrategy(), loaded)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	mgr := writeStrategyFile(t, `
mode: DRY-RUN
scan_interval_seconds: 60
surprise_knob: 1
risk_limits:
  max_positions: 4
  max_buy_amount_per_trade_krw: 1500000
stages:
  exit:
    stop_loss_pct: 1.8
    take_profit_pct: 4.2
`)
	_, err := mgr.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "전략 파일 파싱 실패")
}

func TestLoadDefaultsResetPolicy(t *testing.T) {
	mgr := writeStrategyFile(t, `
mode: DRY-RUN
scan_interval_seconds: 60
risk_limits:
  max_positions: 4
  max_buy_amount_per_trade_krw: 1500000
stages:
  exit:
    stop_loss_pct: 1.8
    take_profit_pct: 4.2
`)
	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.ResetNever, loaded.RiskLimits.ResetPolicy)
}

func TestValidateStrategyRejectsBadZoneOrder(t *testing.T) {
	s := DefaultStrategy()
	s.Stages.Trigger.BreakoutZone1Pct = 3.0 // zone1 > zone3

	err := ValidateStrategy(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone1 <= zone2 <= zone3")
}

func TestValidateStrategyRejectsBadMode(t *testing.T) {
	s := DefaultStrategy()
	s.Mode = "PAPER"
	assert.Error(t, ValidateStrategy(s))
}

func TestValidateStrategyRejectsBadResetPolicy(t *testing.T) {
	s := DefaultStrategy()
	s.RiskLimits.ResetPolicy = "weekly"
	assert.Error(t, ValidateStrategy(s))
}

func TestScanIntervalFloor(t *testing.T) {
	s := DefaultStrategy()
	s.ScanIntervalSeconds = 1
	assert.Equal(t, 5*time.Second, s.ScanInterval())

	s.ScanIntervalSeconds = 60
	assert.Equal(t, 60*time.Second, s.ScanInterval())
}

func TestEnsureStrategyFileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	mgr := NewStrategyManager(path)

	require.NoError(t, mgr.EnsureStrategyFile())
	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultStrategy(), loaded)

	// 기존 파일은 덮어쓰지 않습니다
	custom := DefaultStrategy()
	custom.ScanIntervalSeconds = 30
	require.NoError(t, mgr.Save(custom))
	require.NoError(t, mgr.EnsureStrategyFile())

	loaded, err = mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.ScanIntervalSeconds)
}
