package notifier

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"crypto-setup-sentry/pkg/types"
)

// Manager 通知管理器：多路输出 + 每小时预警数量限制
type Manager struct {
	sinks      []Interface
	maxPerHour int

	mu        sync.Mutex
	sentCount int
	resetDay  string
}

// NewManager 按配置装配输出通道
func NewManager(cfg *types.Config) *Manager {
	m := &Manager{maxPerHour: cfg.Scanner.MaxAlertsPerHour}

	if cfg.Alerts.EnableTelegram {
		m.sinks = append(m.sinks, NewTelegramNotifier(cfg.Telegram))
	}
	if cfg.Alerts.EnableConsole {
		m.sinks = append(m.sinks, NewConsoleNotifier())
	}
	if cfg.Alerts.EnableFile && cfg.Alerts.AlertsFile != "" {
		m.sinks = append(m.sinks, NewFileNotifier(cfg.Alerts.AlertsFile))
	}

	if len(m.sinks) == 0 {
		zap.L().Warn("⚠️ 未启用任何通知通道，预警仅写日志")
	}
	return m
}

// SendSetup 发送单条预警，超出限额时静默丢弃
func (m *Manager) SendSetup(setup *types.TradingSetup) error {
	if !m.allow(setup.Timestamp) {
		zap.L().Warn("🚦 预警数量超限，丢弃",
			zap.String("symbol", setup.Symbol),
			zap.String("type", string(setup.SetupType)))
		return nil
	}

	for _, sink := range m.sinks {
		if err := sink.SendSetup(setup); err != nil {
			zap.L().Warn("⚠️ 通知通道发送失败", zap.Error(err))
		}
	}
	return nil
}

// SendBatch 逐条发送，每条各自计入限额
func (m *Manager) SendBatch(setups []*types.TradingSetup) error {
	for _, setup := range setups {
		if err := m.SendSetup(setup); err != nil {
			return err
		}
	}
	return nil
}

// allow 限额判断。计数器按天重置，不按小时滚动
func (m *Manager) allow(at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := at.Format("2006-01-02")
	if day != m.resetDay {
		m.resetDay = day
		m.sentCount = 0
	}

	if m.maxPerHour > 0 && m.sentCount >= m.maxPerHour {
		return false
	}
	m.sentCount++
	return true
}
