package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAndCloseTrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tradeID, err := s.OpenTrade(ctx, "005930", 21, 70000, "zone3 돌파")
	require.NoError(t, err)
	require.Greater(t, tradeID, int64(0))

	err = s.CloseTrade(ctx, tradeID, 73000, 500, "auto_exit")
	require.NoError(t, err)

	var status string
	var pnl, pnlPct float64
	err = s.db.QueryRow(`SELECT status, pnl, pnl_pct FROM trades WHERE id = ?`, tradeID).
		Scan(&status, &pnl, &pnlPct)
	require.NoError(t, err)

	assert.Equal(t, "CLOSED", status)
	// (73000-70000)*21 - 500 = 62500
	assert.InDelta(t, 62500, pnl, 0.001)
	assert.InDelta(t, (73000.0/70000.0-1)*100, pnlPct, 0.001)
}

func TestCloseTradeUnknownIDIsNoop(t *testing.T) {
	s := newTestStore(t)
	err := s.CloseTrade(context.Background(), 9999, 73000, 500, "auto_exit")
	assert.NoError(t, err)
}

func TestRecordSignal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.RecordSignal(ctx, SignalRecord{
		Symbol:      "005930",
		TotalScore:  100,
		StageScores: `{"universe":{"score":20}}`,
		Verdict:     "PASS",
		Reason:      "통과",
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE symbol='005930'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenFactoryRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.Error(t, err)
}
