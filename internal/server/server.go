// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/assist-by/kstock/internal/domain"
	"github.com/assist-by/kstock/internal/engine"
)

// Server는 헬스체크와 운영 제어를 제공하는 HTTP 서버입니다.
// 외부 공개용이 아니라 단일 인스턴스 로컬 운영용입니다.
type Server struct {
	engine *engine.Orchestrator
	http   *http.Server
}

// New는 제어 서버를 생성합니다
func New(addr string, eng *engine.Orchestrator) *Server {
	s := &Server{engine: eng}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /control/enable", s.handleEnable)
	mux.HandleFunc("POST /control/disable", s.handleDisable)
	mux.HandleFunc("POST /control/order", s.handleOrder)
	mux.HandleFunc("GET /control/diagnosis", s.handleDiagnosis)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start는 서버 수신을 시작합니다. 블로킹 호출입니다.
func (s *Server) Start() error {
	log.Printf("제어 서버 시작: %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown은 서버를 정상 종료합니다
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler는 라우팅 핸들러를 반환합니다. 테스트에서 사용합니다.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"engine": s.engine.Snapshot(),
	})
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.engine.Enable(true)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "enabled": true})
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.engine.Enable(false)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "enabled": false})
}

type orderRequest struct {
	Symbol string  `json:"symbol"`
	Qty    int     `json:"qty"`
	Side   string  `json:"side"`
	Price  float64 `json:"price"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "요청 본문 파싱 실패"})
		return
	}
	if req.Symbol == "" || req.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "symbol과 qty는 필수입니다"})
		return
	}

	side := domain.OrderSide(req.Side)
	if side != domain.Buy && side != domain.Sell {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "side는 BUY 또는 SELL이어야 합니다"})
		return
	}

	result, err := s.engine.ManualOrder(r.Context(), domain.OrderRequest{
		Symbol: req.Symbol,
		Qty:    req.Qty,
		Side:   side,
		Price:  req.Price,
	})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

func (s *Server) handleDiagnosis(w http.ResponseWriter, r *http.Request) {
	diag, err := s.engine.RunManualDiagnosis(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "diagnosis": diag})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("응답 직렬화 실패: %v", err)
	}
}
