package scheduler

import (
	"context"
	"log"
	"time"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// IntervalFunc는 매 실행 후 다음 대기 시간을 반환합니다.
// 전략 파일 핫리로드로 스캔 주기가 바뀌어도 다음 틱부터 반영됩니다.
type IntervalFunc func() time.Duration

// Scheduler는 주기적으로 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	interval IntervalFunc
	task     Task
	stopCh   chan struct{}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval IntervalFunc, task Task) *Scheduler {
	return &Scheduler{
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
	}
}

// Start는 스케줄러를 시작합니다. 첫 작업은 즉시 실행됩니다.
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			if err := s.task.Execute(ctx); err != nil {
				log.Printf("작업 실행 실패: %v", err)
				// 에러가 발생해도 계속 실행
			}

			wait := s.interval()
			log.Printf("다음 스캔까지 %v 대기", wait.Round(time.Second))
			timer.Reset(wait)
		}
	}
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
