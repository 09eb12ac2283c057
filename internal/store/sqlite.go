package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_time TEXT NOT NULL,
	exit_time TEXT,
	symbol TEXT NOT NULL,
	qty INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL,
	pnl REAL DEFAULT 0,
	pnl_pct REAL DEFAULT 0,
	fees REAL DEFAULT 0,
	reason_enter TEXT,
	reason_exit TEXT,
	status TEXT NOT NULL DEFAULT 'OPEN'
);
CREATE TABLE IF NOT EXISTS signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	symbol TEXT NOT NULL,
	total_score REAL NOT NULL,
	stage_scores TEXT NOT NULL,
	pass_fail TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS engine_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLiteStore는 단일 인스턴스 운영용 SQLite 저장소입니다
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite는 SQLite 저장소를 엽니다. 파일 상위 디렉터리가 없으면 만듭니다.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("저장소 디렉터리 생성 실패: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("저장소 열기 실패: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 초기화 실패: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordSignal(ctx context.Context, sig SignalRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (created_at, symbol, total_score, stage_scores, pass_fail, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), sig.Symbol, sig.TotalScore, sig.StageScores, sig.Verdict, sig.Reason,
	)
	return err
}

func (s *SQLiteStore) OpenTrade(ctx context.Context, symbol string, qty int, entryPrice float64, reason string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (entry_time, symbol, qty, entry_price, reason_enter, status)
		VALUES (?, ?, ?, ?, ?, 'OPEN')`,
		time.Now().UTC().Format(time.RFC3339), symbol, qty, entryPrice, reason,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) CloseTrade(ctx context.Context, tradeID int64, exitPrice, fees float64, reason string) error {
	var entryPrice float64
	var qty int
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_price, qty FROM trades WHERE id = ?`, tradeID,
	).Scan(&entryPrice, &qty)
	if err == sql.ErrNoRows {
		return nil // 원본 기록이 없으면 조용히 무시
	}
	if err != nil {
		return err
	}

	pnl := (exitPrice-entryPrice)*float64(qty) - fees
	pnlPct := (exitPrice/entryPrice - 1) * 100

	_, err = s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_time=?, exit_price=?, pnl=?, pnl_pct=?, fees=?, reason_exit=?, status='CLOSED'
		WHERE id=?`,
		time.Now().UTC().Format(time.RFC3339), exitPrice, pnl, pnlPct, fees, reason, tradeID,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
