package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/assist-by/kstock/internal/scheduler"
	"github.com/assist-by/kstock/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "자동매매 엔진과 제어 서버를 실행합니다",
	Long: `자동매매 엔진을 시작하고 스캔 주기마다 한 사이클을 실행합니다.

전략 파일(strategy.yaml)은 매 사이클 시작 시 다시 읽으므로
프로세스 재시작 없이 파라미터를 바꿀 수 있습니다.

예시:
  autotrader run
  autotrader run --dry-run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("자동매매 엔진 시작...")

	cfg, _, eng, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	eng.Enable(true)

	srv := server.New(cfg.App.ServerAddr, eng)
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("제어 서버 오류: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(eng.ScanInterval, eng)
	log.Printf("자동매매 시작 (감시 종목 %d개, 저장소 %s)", len(cfg.KIS.Symbols), cfg.Store.Driver)

	err = sched.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sderr := srv.Shutdown(shutdownCtx); sderr != nil {
		log.Printf("제어 서버 종료 실패: %v", sderr)
	}

	if errors.Is(err, context.Canceled) {
		log.Println("종료 신호 수신, 자동매매를 종료합니다")
		return nil
	}
	return err
}
