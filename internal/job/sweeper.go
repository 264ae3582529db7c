// Package job 定时任务
package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// IdleDeactivator 将长时间无消息的会话置为不活跃
type IdleDeactivator interface {
	DeactivateIdle(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler 包装 cron，统一注册后台任务
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler 按时区创建调度器，时区无效时使用本地时区
func NewScheduler(timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		zap.S().Warnf("invalid jobs timezone %q, using local: %v", timezone, err)
		loc = time.Local
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))}
}

// RegisterIdleSweep 注册闲置会话清理任务
// 参数:
//   - spec: cron 表达式，如 "@hourly"
//   - repo: 会话仓库
//   - idleDays: 最近活动早于多少天的会话会被置为不活跃
func (s *Scheduler) RegisterIdleSweep(spec string, repo IdleDeactivator, idleDays int) error {
	_, err := s.cron.AddFunc(spec, func() {
		SweepIdleConversations(context.Background(), repo, idleDays, time.Now())
	})
	return err
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// SweepIdleConversations 执行一次闲置会话清理
// 返回受影响的会话数
func SweepIdleConversations(ctx context.Context, repo IdleDeactivator, idleDays int, now time.Time) int64 {
	if idleDays <= 0 {
		return 0
	}
	before := now.Add(-time.Duration(idleDays) * 24 * time.Hour)
	n, err := repo.DeactivateIdle(ctx, before)
	if err != nil {
		zap.L().Error("sweep idle conversations failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		zap.L().Info("idle conversations deactivated", zap.Int64("count", n), zap.Time("before", before))
	}
	return n
}
