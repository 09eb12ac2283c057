package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/assist-by/kstock/internal/domain"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "지금 자동 주문이 안 나가는 이유를 종목별로 진단합니다",
	Long: `현재 시점의 시세를 수집해 전략 단계별 점수를 평가하고,
종목마다 자동 주문을 막는 최상위 원인(전략/시장/리스크/인증정보)을 출력합니다.
주문은 내지 않습니다.`,
	RunE: runDiagnose,
}

var jsonOutput bool

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().BoolVar(&jsonOutput, "json", false, "전체 진단 결과를 JSON으로 출력")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	_, _, eng, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	diag, err := eng.RunManualDiagnosis(context.Background())
	if err != nil {
		return fmt.Errorf("진단 실패: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diag)
	}

	fmt.Printf("장 상태: %s (주문 가능: %v)\n", diag.Market.Reason, diag.Market.CanPlaceOrder)
	if diag.RiskOK {
		fmt.Println("리스크 게이트: 통과")
	} else {
		fmt.Printf("리스크 게이트: 차단 (%s)\n", diag.RiskReason)
	}
	fmt.Printf("인증정보: %v\n", diag.CredentialsOK)
	fmt.Printf("자동 주문 가능: %v\n\n", diag.CanAutoOrderNow)

	for _, s := range diag.Symbols {
		verdict := "FAIL"
		if s.Score.Passed {
			verdict = "PASS"
		}
		degraded := ""
		if s.DegradedPrice {
			degraded = " (합성가격)"
		}
		fmt.Printf("%s  %.0f원%s  점수 %.1f (U%.0f/P%.0f/T%.0f/C%.0f)  %s",
			s.Symbol, s.Price, degraded, s.Score.TotalScore,
			s.Score.StageScore(domain.StageUniverse),
			s.Score.StageScore(domain.StagePreBreakout),
			s.Score.StageScore(domain.StageTrigger),
			s.Score.StageScore(domain.StageConfirmation),
			verdict)
		if s.Blocker != "" {
			fmt.Printf("  차단: %s", s.Blocker)
		}
		fmt.Println()
	}
	return nil
}
