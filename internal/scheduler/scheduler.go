package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crypto-setup-sentry/internal/scanner"
	"crypto-setup-sentry/pkg/types"
)

// Scheduler 持续监控调度器：按固定间隔循环触发扫描，单轮崩溃后自动恢复
type Scheduler struct {
	cfg     types.ScannerConfig
	scanner *scanner.Scanner
}

// New 创建调度器
func New(cfg types.ScannerConfig, s *scanner.Scanner) *Scheduler {
	return &Scheduler{cfg: cfg, scanner: s}
}

// Run 阻塞运行，直到上下文取消。
// 单轮失败（报错或崩溃）后按恢复间隔重试，而不是等完整的扫描间隔
func (s *Scheduler) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	zap.L().Info("🚀 持续监控已启动", zap.Duration("interval", interval))

	for {
		wait := interval
		if failed := s.runOnce(ctx); failed {
			wait = s.cfg.RecoverySleep
		}

		select {
		case <-ctx.Done():
			zap.L().Info("🛑 持续监控已停止")
			return
		case <-time.After(wait):
		}
	}
}

// runOnce 执行一轮扫描，panic被捕获后视作失败
func (s *Scheduler) runOnce(ctx context.Context) (failed bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("💥 扫描崩溃，等待恢复", zap.Any("panic", r))
			failed = true
		}
	}()

	if _, err := s.scanner.Scan(ctx); err != nil && ctx.Err() == nil {
		zap.L().Error("❌ 本轮扫描失败", zap.Error(err))
		return true
	}
	return false
}
