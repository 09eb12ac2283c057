// internal/position/book.go
package position

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/exchange"
	"github.com/assist-by/kstock/internal/notification"
	"github.com/assist-by/kstock/internal/risk"
	"github.com/assist-by/kstock/internal/store"
)

// 청산 1건당 적용하는 고정 수수료 (KRW)
const exitFeeKrw = 500

// Book은 보유 포지션 장부입니다. 종목당 최대 1개 포지션을 유지하며
// 진입과 청산의 부수 효과(저장소 기록, 리스크 반영, 알림)를 한곳에 모읍니다.
type Book struct {
	mu        sync.Mutex
	positions map[string]domain.Position

	store    store.Store
	governor *risk.Governor
	notifier notification.Notifier
}

// NewBook은 빈 포지션 장부를 생성합니다
func NewBook(st store.Store, governor *risk.Governor, notifier notification.Notifier) *Book {
	return &Book{
		positions: make(map[string]domain.Position),
		store:     st,
		governor:  governor,
		notifier:  notifier,
	}
}

// Count는 현재 보유 포지션 수를 반환합니다
func (b *Book) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// Holding은 해당 종목 보유 여부를 반환합니다
func (b *Book) Holding(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.positions[symbol]
	return ok
}

// Snapshot은 보유 포지션의 사본을 반환합니다
func (b *Book) Snapshot() []domain.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

// TryEnter는 신호가 통과한 종목의 진입을 시도합니다.
// 이미 보유 중이거나 포지션 한도에 도달했으면 조용히 건너뜁니다.
// 수량은 1회 매수 한도를 현재가로 나눈 몫이며 0주면 주문하지 않습니다.
func (b *Book) TryEnter(ctx context.Context, gw exchange.Gateway, q domain.Quote, limits config.RiskLimits, reason string) error {
	b.mu.Lock()
	if _, held := b.positions[q.Symbol]; held {
		b.mu.Unlock()
		return nil
	}
	if limits.MaxPositions > 0 && len(b.positions) >= limits.MaxPositions {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	qty := int(limits.MaxBuyAmountPerTradeKrw / q.Price)
	if qty <= 0 {
		return nil
	}

	result, err := gw.PlaceOrder(ctx, domain.OrderRequest{
		Symbol: q.Symbol,
		Qty:    qty,
		Side:   domain.Buy,
		Price:  q.Price,
	})
	if err != nil {
		return fmt.Errorf("진입 주문 실패 (%s): %w", q.Symbol, err)
	}
	if !result.Status.Executed() {
		log.Printf("진입 주문 미체결 (%s): %s %s", q.Symbol, result.Status, result.Reason)
		return nil
	}

	tradeID, err := b.store.OpenTrade(ctx, q.Symbol, qty, q.Price, reason)
	if err != nil {
		return fmt.Errorf("트레이드 기록 실패 (%s): %w", q.Symbol, err)
	}

	b.mu.Lock()
	b.positions[q.Symbol] = domain.Position{
		Symbol:     q.Symbol,
		TradeID:    tradeID,
		EntryPrice: q.Price,
		Qty:        qty,
		EntryTime:  time.Now(),
	}
	b.mu.Unlock()

	b.governor.RecordEntry()
	b.notifier.Send(fmt.Sprintf("[진입] %s %d주 @ %.0f원", q.Symbol, qty, q.Price))
	return nil
}

// ManageExits는 보유 종목의 손절/익절 조건을 검사하고 해당하면 청산합니다.
// 진입가 대비 등락률이 -손절% 이하이거나 +익절% 이상이면 청산합니다.
func (b *Book) ManageExits(ctx context.Context, gw exchange.Gateway, quotes []domain.Quote, strat *config.Strategy, now time.Time) error {
	for _, q := range quotes {
		b.mu.Lock()
		pos, held := b.positions[q.Symbol]
		b.mu.Unlock()
		if !held {
			continue
		}

		changePct := (q.Price/pos.EntryPrice - 1) * 100
		shouldExit := changePct <= -strat.Stages.Exit.StopLossPct ||
			changePct >= strat.Stages.Exit.TakeProfitPct
		if !shouldExit {
			continue
		}

		result, err := gw.PlaceOrder(ctx, domain.OrderRequest{
			Symbol: q.Symbol,
			Qty:    pos.Qty,
			Side:   domain.Sell,
			Price:  q.Price,
		})
		if err != nil {
			return fmt.Errorf("청산 주문 실패 (%s): %w", q.Symbol, err)
		}
		if !result.Status.Executed() {
			log.Printf("청산 주문 미체결 (%s): %s %s", q.Symbol, result.Status, result.Reason)
			continue
		}

		if err := b.store.CloseTrade(ctx, pos.TradeID, q.Price, exitFeeKrw, "auto_exit"); err != nil {
			return fmt.Errorf("트레이드 청산 기록 실패 (%s): %w", q.Symbol, err)
		}

		pnl := (q.Price-pos.EntryPrice)*float64(pos.Qty) - exitFeeKrw
		b.governor.RecordExit(pnl, strat.RiskLimits, now)

		b.mu.Lock()
		delete(b.positions, q.Symbol)
		b.mu.Unlock()

		b.notifier.Send(fmt.Sprintf("[청산] %s %d주 @ %.0f원, 손익 %.0f원", q.Symbol, pos.Qty, q.Price, pnl))
	}
	return nil
}
