package market

import (
	"time"

	"github.com/assist-by/kstock/internal/domain"
)

// KST는 한국 표준시입니다. tzdata가 없는 환경에서도 동작해야 하므로
// 고정 오프셋으로 정의합니다 (한국은 서머타임이 없습니다).
var KST = time.FixedZone("KST", 9*60*60)

// 정규장 시간 (KST)
const (
	openHour, openMin   = 9, 0
	closeHour, closeMin = 15, 30
)

// krHolidays는 KRX 휴장일 목록입니다. 연도별로 갱신합니다.
var krHolidays = map[string]string{
	// 2025
	"2025-01-01": "신정",
	"2025-01-28": "설날 연휴",
	"2025-01-29": "설날",
	"2025-01-30": "설날 연휴",
	"2025-03-03": "삼일절 대체공휴일",
	"2025-05-01": "근로자의 날",
	"2025-05-05": "어린이날",
	"2025-05-06": "부처님오신날 대체공휴일",
	"2025-06-06": "현충일",
	"2025-08-15": "광복절",
	"2025-10-03": "개천절",
	"2025-10-06": "추석 연휴",
	"2025-10-07": "추석 연휴",
	"2025-10-08": "추석 연휴",
	"2025-10-09": "한글날",
	"2025-12-25": "성탄절",
	"2025-12-31": "연말 휴장",
	// 2026
	"2026-01-01": "신정",
	"2026-02-16": "설날 연휴",
	"2026-02-17": "설날",
	"2026-02-18": "설날 연휴",
	"2026-03-02": "삼일절 대체공휴일",
	"2026-05-01": "근로자의 날",
	"2026-05-05": "어린이날",
	"2026-05-25": "부처님오신날 대체공휴일",
	"2026-06-06": "현충일",
	"2026-08-17": "광복절 대체공휴일",
	"2026-09-24": "추석 연휴",
	"2026-09-25": "추석",
	"2026-09-28": "추석 대체공휴일",
	"2026-10-05": "개천절 대체공휴일",
	"2026-10-09": "한글날",
	"2026-12-25": "성탄절",
	"2026-12-31": "연말 휴장",
}

// Clock은 장 운영 상태 판정 함수 타입입니다.
// 엔진과 게이트웨이는 이 타입으로 주입받아 테스트에서 대체할 수 있습니다.
type Clock func(now time.Time) domain.MarketStatus

// Status는 주어진 시각의 KRX 장 상태를 반환합니다.
// 인자가 제로값이면 현재 시각을 사용합니다.
func Status(now time.Time) domain.MarketStatus {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(KST)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return domain.MarketStatus{IsOpen: false, CanPlaceOrder: false, Reason: "휴장일 또는 주말"}
	}
	if _, ok := krHolidays[now.Format("2006-01-02")]; ok {
		return domain.MarketStatus{IsOpen: false, CanPlaceOrder: false, Reason: "휴장일 또는 주말"}
	}

	open := time.Date(now.Year(), now.Month(), now.Day(), openHour, openMin, 0, 0, KST)
	close := time.Date(now.Year(), now.Month(), now.Day(), closeHour, closeMin, 0, 0, KST)
	if !now.Before(open) && !now.After(close) {
		return domain.MarketStatus{IsOpen: true, CanPlaceOrder: true, Reason: "정규장"}
	}
	return domain.MarketStatus{IsOpen: false, CanPlaceOrder: false, Reason: "장마감 또는 장전"}
}

// NextOpen은 주어진 시각 이후 첫 장 시작 시각을 반환합니다
func NextOpen(now time.Time) time.Time {
	now = now.In(KST)
	day := time.Date(now.Year(), now.Month(), now.Day(), openHour, openMin, 0, 0, KST)
	if !now.Before(day) {
		day = day.AddDate(0, 0, 1)
	}
	for {
		st := Status(day)
		if st.IsOpen {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
}
