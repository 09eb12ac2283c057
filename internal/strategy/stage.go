package strategy

import (
	"fmt"

	"github.com/assist-by/kstock/internal/config"
	"github.com/assist-by/kstock/internal/domain"
)

// 총점 합격선. 단계 배점과 무관하게 고정입니다.
const passScore = 65

// StageStrategy는 단계별 돌파 전략 평가기입니다.
// 순수 함수로 동작하며 입출력 외의 상태를 갖지 않습니다.
type StageStrategy struct{}

// New는 단계별 돌파 전략 평가기를 생성합니다
func New() *StageStrategy {
	return &StageStrategy{}
}

// Evaluate는 시세 스냅샷 하나를 전략 파라미터로 평가합니다.
// trigger 단계는 점수에만 기여하고 단독 게이트가 아닙니다.
// 합격 조건: 총점 >= 65 AND pre_breakout 통과 AND confirmation 통과.
func (s *StageStrategy) Evaluate(q domain.Quote, cfg *config.Strategy) domain.ScoreResult {
	w := cfg.ScoringWeights
	stages := make(map[string]domain.StageResult, 4)

	// 1단계: 유니버스 (스프레드 필터)
	u := cfg.Stages.Universe
	uPass := q.SpreadPct <= u.MaxSpreadPct
	stages[domain.StageUniverse] = domain.StageResult{
		Passed:   uPass,
		Score:    weightIf(uPass, w.Universe),
		MaxScore: w.Universe,
		Reason:   boolReason(uPass, fmt.Sprintf("스프레드 %.2f%% <= %.2f%%", q.SpreadPct, u.MaxSpreadPct), fmt.Sprintf("스프레드 %.2f%% 초과", q.SpreadPct)),
	}

	// 2단계: 돌파 전조 (거래량 급증 + 일중 변동성)
	pb := cfg.Stages.PreBreakout
	pbPass := q.VolumeRatio >= pb.VolumeSpikeRatioMin && q.VolatilityPct >= pb.IntradayVolatilityPctMin
	stages[domain.StagePreBreakout] = domain.StageResult{
		Passed:   pbPass,
		Score:    weightIf(pbPass, w.PreBreakout),
		MaxScore: w.PreBreakout,
		Reason:   boolReason(pbPass, "거래량/변동성 조건 충족", fmt.Sprintf("거래량배율 %.2f 또는 변동성 %.2f%% 미달", q.VolumeRatio, q.VolatilityPct)),
	}

	// 3단계: 트리거 (구간별 차등 점수, 단독 게이트 아님)
	stages[domain.StageTrigger] = evaluateTrigger(q, cfg.Stages.Trigger, w.Trigger)

	// 4단계: 확인 (체결강도 + 스프레드 + 추세)
	c := cfg.Stages.Confirmation
	cPass := q.ExecutionStrength >= c.ExecutionStrengthMin &&
		q.SpreadPct <= c.SpreadPctMax &&
		q.TrendSlope >= c.TrendSlopeMin
	stages[domain.StageConfirmation] = domain.StageResult{
		Passed:   cPass,
		Score:    weightIf(cPass, w.Confirmation),
		MaxScore: w.Confirmation,
		Reason:   boolReason(cPass, "확인 조건 충족", fmt.Sprintf("체결강도 %.1f / 스프레드 %.2f%% / 추세 %.2f 확인 실패", q.ExecutionStrength, q.SpreadPct, q.TrendSlope)),
	}

	var total float64
	for _, st := range stages {
		total += st.Score
	}

	passed := total >= passScore && pbPass && cPass
	reason := "통과"
	if !passed {
		reason = "단계 점수 미달 또는 확인조건 실패"
	}

	return domain.ScoreResult{
		Passed:       passed,
		TotalScore:   total,
		StageResults: stages,
		Reason:       reason,
	}
}

// evaluateTrigger는 변동성 돌파 구간에 따라 차등 점수를 부여합니다.
// zone3 >= zone2 >= zone1 순으로 검사하며, 도달한 구간이 사유 문자열에 남습니다.
func evaluateTrigger(q domain.Quote, t config.TriggerStage, weight float64) domain.StageResult {
	var score float64
	var reason string

	switch {
	case q.VolatilityPct >= t.BreakoutZone3Pct:
		score = weight
		reason = fmt.Sprintf("zone3 돌파 (%.2f%% >= %.2f%%)", q.VolatilityPct, t.BreakoutZone3Pct)
	case q.VolatilityPct >= t.BreakoutZone2Pct:
		score = weight * 0.75
		reason = fmt.Sprintf("zone2 돌파 (%.2f%% >= %.2f%%)", q.VolatilityPct, t.BreakoutZone2Pct)
	case q.VolatilityPct >= t.BreakoutZone1Pct:
		score = weight * 0.4
		reason = fmt.Sprintf("zone1 돌파 (%.2f%% >= %.2f%%)", q.VolatilityPct, t.BreakoutZone1Pct)
	default:
		score = 0
		reason = fmt.Sprintf("none: 돌파 구간 미도달 (%.2f%%)", q.VolatilityPct)
	}

	return domain.StageResult{
		Passed:   score > 0,
		Score:    score,
		MaxScore: weight,
		Reason:   reason,
	}
}

func weightIf(pass bool, weight float64) float64 {
	if pass {
		return weight
	}
	return 0
}

func boolReason(pass bool, ok, fail string) string {
	if pass {
		return ok
	}
	return fail
}
