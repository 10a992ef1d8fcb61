package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crypto-setup-sentry/internal/database"
	"crypto-setup-sentry/internal/detector"
	"crypto-setup-sentry/internal/fetcher"
	"crypto-setup-sentry/internal/indicators"
	"crypto-setup-sentry/internal/notifier"
	"crypto-setup-sentry/internal/scanner"
	"crypto-setup-sentry/internal/scheduler"
	"crypto-setup-sentry/internal/storage"
	"crypto-setup-sentry/pkg/types"
)

// App 应用程序管理器
type App struct {
	config *types.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	db     *database.Manager
	stream *fetcher.TickerStream
}

// NewApp 创建应用程序实例
func NewApp(config *types.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动应用程序
func (app *App) Start() {
	zap.L().Info("🚀 Crypto Setup Sentry 启动中...")

	cfg := app.config
	cooldown := time.Duration(cfg.Scanner.CooldownMinutes) * time.Minute

	state := storage.NewScanState(cfg.Redis, cooldown)
	calc := indicators.NewCalculator(cfg.Indicators)
	dataFetcher := fetcher.NewDataFetcher(cfg, calc)
	engine := detector.NewEngine(cfg, state)
	notifyManager := notifier.NewManager(cfg)

	// MySQL持久化为可选组件，连接失败时降级继续运行
	if cfg.Database.MySQL.Host != "" {
		db, err := database.NewManager(cfg.Database.MySQL)
		if err != nil {
			zap.L().Warn("⚠️ MySQL连接失败，禁用持久化", zap.Error(err))
		} else {
			app.db = db
		}
	}

	// 可选的实时行情WebSocket缓存
	if cfg.Exchange.EnableStream && len(cfg.Exchange.PrioritySymbols) > 0 {
		stream := fetcher.NewTickerStream(cfg.Network, cfg.Exchange.PrioritySymbols, state)
		if err := stream.Start(); err != nil {
			zap.L().Warn("⚠️ 行情WebSocket启动失败，仅使用REST行情", zap.Error(err))
		} else {
			app.stream = stream
		}
	}

	setupScanner := scanner.New(cfg, dataFetcher, engine, state, notifyManager, app.db)
	taskScheduler := scheduler.New(cfg.Scanner, setupScanner)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		taskScheduler.Run(app.ctx)
	}()

	zap.L().Info("✅ Crypto Setup Sentry 已启动")
}

// Stop 停止应用程序
func (app *App) Stop() {
	zap.L().Info("🛑 收到停止信号，正在优雅关闭...")
	app.cancel()

	if app.stream != nil {
		app.stream.Close()
	}

	// 等待所有goroutine结束，最多等待30秒
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("✅ Crypto Setup Sentry 已安全关闭")
	case <-time.After(30 * time.Second):
		zap.L().Warn("⚠️ 强制关闭超时")
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			zap.L().Warn("⚠️ 关闭数据库连接失败", zap.Error(err))
		}
	}
}

// WaitForShutdown 等待关闭信号
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
