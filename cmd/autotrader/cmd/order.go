package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assist-by/kstock/internal/domain"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "수동 단건 주문을 실행합니다",
	Long: `리스크 게이트와 전략 평가를 거치지 않고 단건 주문을 실행합니다.
전략 파일의 mode가 DRY-RUN이면 모의 체결, LIVE면 실주문입니다.

예시:
  autotrader order --symbol 005930 --qty 1 --side BUY --price 70000
  autotrader order --symbol 005930 --qty 1 --side SELL        (시장가)`,
	RunE: runOrder,
}

var (
	orderSymbol string
	orderQty    int
	orderSide   string
	orderPrice  float64
)

func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().StringVar(&orderSymbol, "symbol", "", "종목코드 (필수)")
	orderCmd.Flags().IntVar(&orderQty, "qty", 0, "주문 수량 (필수)")
	orderCmd.Flags().StringVar(&orderSide, "side", "BUY", "주문 방향 (BUY 또는 SELL)")
	orderCmd.Flags().Float64Var(&orderPrice, "price", 0, "지정가 (0이면 시장가)")
	orderCmd.MarkFlagRequired("symbol")
	orderCmd.MarkFlagRequired("qty")
}

func runOrder(cmd *cobra.Command, args []string) error {
	side := domain.OrderSide(strings.ToUpper(orderSide))
	if side != domain.Buy && side != domain.Sell {
		return fmt.Errorf("side는 BUY 또는 SELL이어야 합니다: %s", orderSide)
	}
	if orderQty <= 0 {
		return fmt.Errorf("qty는 1 이상이어야 합니다: %d", orderQty)
	}

	_, _, eng, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := eng.ManualOrder(context.Background(), domain.OrderRequest{
		Symbol: orderSymbol,
		Qty:    orderQty,
		Side:   side,
		Price:  orderPrice,
	})
	if err != nil {
		return fmt.Errorf("주문 실패: %w", err)
	}

	fmt.Printf("상태: %s\n", result.Status)
	if result.OrderID != "" {
		fmt.Printf("주문번호: %s\n", result.OrderID)
	}
	if result.Reason != "" {
		fmt.Printf("사유: %s\n", result.Reason)
	}
	if result.Msg != "" {
		fmt.Printf("응답: [%s] %s\n", result.RtCd, result.Msg)
	}
	return nil
}
