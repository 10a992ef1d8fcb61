package detector

import (
	"go.uber.org/zap"

	"crypto-setup-sentry/internal/levels"
	"crypto-setup-sentry/internal/market"
	"crypto-setup-sentry/internal/storage"
	"crypto-setup-sentry/pkg/types"
)

// Detector 形态检测器接口，未检出时返回nil
type Detector interface {
	Type() types.SetupType
	Detect(s *types.Series, md *types.MarketData, cond types.MarketCondition) *types.TradingSetup
}

// Engine 检测引擎：前置过滤 + 市场状态分类 + 按固定顺序跑全部检测器
type Engine struct {
	gate       *Gate
	classifier *market.Classifier
	detectors  []Detector
	state      *storage.ScanState
}

// NewEngine 创建检测引擎，检测器顺序固定
func NewEngine(cfg *types.Config, state *storage.ScanState) *Engine {
	finder := levels.NewFinder(cfg.Patterns.LevelWindow)
	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)

	return &Engine{
		gate:       NewGate(cfg.Filters),
		classifier: market.NewClassifier(),
		detectors: []Detector{
			NewBreakoutDetector(cfg.Patterns, cfg.Filters, finder, sizer),
			NewHigherLowsDetector(cfg.Patterns, finder, sizer),
			NewImpulsePullbackDetector(cfg.Patterns, sizer),
			NewSqueezeBreakoutDetector(cfg.Patterns, finder, sizer),
		},
		state: state,
	}
}

// DetectAll 对单个币种执行完整检测流程，返回本轮检出的全部形态
func (e *Engine) DetectAll(s *types.Series, md *types.MarketData) []*types.TradingSetup {
	if !e.gate.Admit(s, md) {
		return nil
	}

	cond := e.classifier.Classify(s)

	var setups []*types.TradingSetup
	for _, d := range e.detectors {
		setup := d.Detect(s, md, cond)
		if setup == nil {
			continue
		}

		zap.L().Info("🎯 检出交易形态",
			zap.String("symbol", md.Symbol),
			zap.String("type", string(setup.SetupType)),
			zap.Float64("confidence", setup.Confidence))

		// 触发即记录冷却，同一轮内其余检测器不受影响
		e.state.RecordAlert(md.Symbol, setup.Timestamp)
		setups = append(setups, setup)
	}
	return setups
}
