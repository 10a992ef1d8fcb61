package detector

import (
	"fmt"
	"math"
	"time"

	"crypto-setup-sentry/internal/levels"
	"crypto-setup-sentry/pkg/types"
)

// 上升低点检测所需的最小K线数
const higherLowsMinBars = 50

// 局部低点的单侧确认窗口
const localLowWindow = 10

// HigherLowsDetector 上升低点检测器：一串逐级抬高的局部低点 + 上方阻力位
type HigherLowsDetector struct {
	patterns types.PatternConfig
	finder   *levels.Finder
	sizer    *Sizer
}

// NewHigherLowsDetector 创建上升低点检测器
func NewHigherLowsDetector(patterns types.PatternConfig, finder *levels.Finder, sizer *Sizer) *HigherLowsDetector {
	return &HigherLowsDetector{patterns: patterns, finder: finder, sizer: sizer}
}

// Type 形态类型
func (d *HigherLowsDetector) Type() types.SetupType {
	return types.SetupHigherLows
}

// Detect 检测上升低点形态
func (d *HigherLowsDetector) Detect(s *types.Series, md *types.MarketData, cond types.MarketCondition) *types.TradingSetup {
	if s.Len() < higherLowsMinBars || !s.HasIndicators() {
		return nil
	}

	lows := localLows(s)
	if len(lows) < d.patterns.HigherLowsMinCount {
		return nil
	}

	// 取最近的N个局部低点，要求严格递增
	recent := lows[len(lows)-d.patterns.HigherLowsMinCount:]
	for i := 1; i < len(recent); i++ {
		if recent[i].value <= recent[i-1].value {
			return nil
		}
	}

	price := s.LastClose()
	resistance := d.finder.Resistance(s)
	if len(resistance) == 0 {
		return nil
	}

	nearest, ok := levels.NearestAbove(resistance, price, price)
	if !ok || price >= nearest*0.98 {
		return nil
	}

	lastLow := recent[len(recent)-1].value
	entry := nearest * 1.002
	stop := lastLow * 0.995
	if entry <= stop {
		return nil
	}

	// 止损幅度超过配置上限的形态不交易
	riskPct := math.Abs(entry-stop) / entry * 100
	if riskPct > d.patterns.StopLossPct {
		return nil
	}

	positionSize := d.sizer.PositionSize(entry, stop)

	confidence := 0.75
	if cond == types.ConditionBullish {
		confidence += 0.1
	}
	if len(recent) > 3 {
		confidence += 0.05
	}

	return &types.TradingSetup{
		Symbol:             md.Symbol,
		SetupType:          types.SetupHigherLows,
		EntryPrice:         entry,
		StopLoss:           stop,
		TakeProfit:         d.sizer.TakeProfit(entry, stop),
		RiskReward:         d.sizer.RiskReward(),
		Confidence:         capConfidence(confidence),
		Timestamp:          time.Now(),
		Description:        fmt.Sprintf("%d个逐级抬高的低点，上方阻力位 %.4f", len(recent), nearest),
		Leverage:           d.sizer.Leverage(positionSize, entry),
		PositionSize:       positionSize,
		RiskAmount:         d.sizer.RiskAmount(),
		MarketCondition:    cond,
		VolumeConfirmation: true,
		TrendConfirmation:  true,
		Details: types.HigherLowsDetails{
			LowsCount:       len(recent),
			ResistanceLevel: nearest,
			LastLow:         lastLow,
			RSI:             s.RSI[s.Len()-1],
		},
	}
}

type indexedLow struct {
	index int
	value float64
}

// localLows 局部低点：最低价不高于前10根和后10根K线的最低价
func localLows(s *types.Series) []indexedLow {
	var lows []indexedLow
	for i := localLowWindow; i < s.Len()-localLowWindow; i++ {
		low := s.Candles[i].Low

		prevMin := math.Inf(1)
		for j := i - localLowWindow; j < i; j++ {
			if s.Candles[j].Low < prevMin {
				prevMin = s.Candles[j].Low
			}
		}
		nextMin := math.Inf(1)
		for j := i + 1; j <= i+localLowWindow; j++ {
			if s.Candles[j].Low < nextMin {
				nextMin = s.Candles[j].Low
			}
		}

		if low <= prevMin && low <= nextMin {
			lows = append(lows, indexedLow{index: i, value: low})
		}
	}
	return lows
}
