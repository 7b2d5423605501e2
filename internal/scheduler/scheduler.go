// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/glamping-backend/internal/common/logger"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	tasks   []*Task
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *zap.Logger
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// NewScheduler 创建调度器，timeout 为单次执行上限
func NewScheduler(timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.Named("scheduler"),
	}
}

// AddTask 添加任务；interval 不大于 0 的任务被忽略
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		s.log.Info("task disabled", zap.String("task", name))
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// Len 已注册任务数
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.log.Info("scheduler starting", zap.Int("tasks", len(s.tasks)))
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
}

// Stop 停止调度器并等待执行中的任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Close 实现 io.Closer
func (s *Scheduler) Close() error {
	s.Stop()
	return nil
}

func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeTask(task)
		}
	}
}

func (s *Scheduler) executeTask(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		s.log.Error("task failed", zap.String("task", task.Name), zap.Error(err))
		return
	}
	s.log.Debug("task completed", zap.String("task", task.Name), logger.Latency(time.Since(start)))
}
