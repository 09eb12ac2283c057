package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id BIGSERIAL PRIMARY KEY,
	entry_time TIMESTAMPTZ NOT NULL,
	exit_time TIMESTAMPTZ,
	symbol TEXT NOT NULL,
	qty INTEGER NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	exit_price DOUBLE PRECISION,
	pnl DOUBLE PRECISION DEFAULT 0,
	pnl_pct DOUBLE PRECISION DEFAULT 0,
	fees DOUBLE PRECISION DEFAULT 0,
	reason_enter TEXT,
	reason_exit TEXT,
	status TEXT NOT NULL DEFAULT 'OPEN'
);
CREATE TABLE IF NOT EXISTS signals (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	total_score DOUBLE PRECISION NOT NULL,
	stage_scores TEXT NOT NULL,
	pass_fail TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS engine_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore는 관리형 DB로 이전한 운영 환경용 저장소입니다.
// SQLiteStore와 같은 스키마/의미를 가집니다.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres는 PostgreSQL 저장소를 엽니다
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("저장소 연결 실패: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("저장소 연결 확인 실패: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 초기화 실패: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RecordSignal(ctx context.Context, sig SignalRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (created_at, symbol, total_score, stage_scores, pass_fail, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		time.Now().UTC(), sig.Symbol, sig.TotalScore, sig.StageScores, sig.Verdict, sig.Reason,
	)
	return err
}

func (s *PostgresStore) OpenTrade(ctx context.Context, symbol string, qty int, entryPrice float64, reason string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO trades (entry_time, symbol, qty, entry_price, reason_enter, status)
		VALUES ($1, $2, $3, $4, $5, 'OPEN')
		RETURNING id`,
		time.Now().UTC(), symbol, qty, entryPrice, reason,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) CloseTrade(ctx context.Context, tradeID int64, exitPrice, fees float64, reason string) error {
	var entryPrice float64
	var qty int
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_price, qty FROM trades WHERE id = $1`, tradeID,
	).Scan(&entryPrice, &qty)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	pnl := (exitPrice-entryPrice)*float64(qty) - fees
	pnlPct := (exitPrice/entryPrice - 1) * 100

	_, err = s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_time=$1, exit_price=$2, pnl=$3, pnl_pct=$4, fees=$5, reason_exit=$6, status='CLOSED'
		WHERE id=$7`,
		time.Now().UTC(), exitPrice, pnl, pnlPct, fees, reason, tradeID,
	)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
