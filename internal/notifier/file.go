package notifier

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"crypto-setup-sentry/pkg/types"
)

// FileNotifier 文件通知器：按JSON行追加写入预警记录
type FileNotifier struct {
	mu   sync.Mutex
	path string
}

// fileRecord 落盘的预警记录结构
type fileRecord struct {
	Timestamp       string  `json:"timestamp"`
	Symbol          string  `json:"symbol"`
	SetupType       string  `json:"setup_type"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskReward      float64 `json:"risk_reward"`
	Confidence      float64 `json:"confidence"`
	Leverage        int     `json:"leverage"`
	PositionSize    float64 `json:"position_size"`
	RiskAmount      float64 `json:"risk_amount"`
	MarketCondition string  `json:"market_condition"`
	Description     string  `json:"description"`
}

// NewFileNotifier 创建文件通知器
func NewFileNotifier(path string) *FileNotifier {
	return &FileNotifier{path: path}
}

func (fn *FileNotifier) SendSetup(setup *types.TradingSetup) error {
	fn.mu.Lock()
	defer fn.mu.Unlock()

	f, err := os.OpenFile(fn.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开预警记录文件失败: %v", err)
	}
	defer f.Close()

	record := fileRecord{
		Timestamp:       setup.Timestamp.Format(time.RFC3339),
		Symbol:          setup.Symbol,
		SetupType:       string(setup.SetupType),
		EntryPrice:      setup.EntryPrice,
		StopLoss:        setup.StopLoss,
		TakeProfit:      setup.TakeProfit,
		RiskReward:      setup.RiskReward,
		Confidence:      setup.Confidence,
		Leverage:        setup.Leverage,
		PositionSize:    setup.PositionSize,
		RiskAmount:      setup.RiskAmount,
		MarketCondition: string(setup.MarketCondition),
		Description:     setup.Description,
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化预警记录失败: %v", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("写入预警记录失败: %v", err)
	}
	return nil
}

func (fn *FileNotifier) SendBatch(setups []*types.TradingSetup) error {
	for _, setup := range setups {
		if err := fn.SendSetup(setup); err != nil {
			return err
		}
	}
	return nil
}
