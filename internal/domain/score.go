package domain

// 단계 이름 상수. 점수 맵과 저장소 직렬화에 그대로 사용됩니다.
const (
	StageUniverse     = "universe"
	StagePreBreakout  = "pre_breakout"
	StageTrigger      = "trigger"
	StageConfirmation = "confirmation"
)

// StageResult는 단계별 평가 결과입니다
type StageResult struct {
	Passed   bool    `json:"passed"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Reason   string  `json:"reason"`
}

// ScoreResult는 한 종목에 대한 전체 평가 결과입니다.
// 생성 즉시 소비되며 상태로 보관하지 않습니다.
type ScoreResult struct {
	Passed       bool                   `json:"passed"`
	TotalScore   float64                `json:"total_score"`
	StageResults map[string]StageResult `json:"stage_results"`
	Reason       string                 `json:"reason"`
}

// StageScore는 단계 이름으로 점수를 조회합니다. 없는 단계는 0입니다.
func (r ScoreResult) StageScore(name string) float64 {
	return r.StageResults[name].Score
}
