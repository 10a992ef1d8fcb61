package detector

import (
	"fmt"
	"math"
	"time"

	"crypto-setup-sentry/internal/levels"
	"crypto-setup-sentry/pkg/types"
)

const (
	// 挤压突破检测所需的最小K线数
	squeezeMinBars = 40
	// ATR均值窗口
	squeezeATRWindow = 20
	// 区间压缩度量窗口
	squeezeRangeWindow = 10
)

// SqueezeBreakoutDetector 挤压突破检测器：波动压缩 + 贴近关键价位
type SqueezeBreakoutDetector struct {
	patterns types.PatternConfig
	finder   *levels.Finder
	sizer    *Sizer
}

// NewSqueezeBreakoutDetector 创建挤压突破检测器
func NewSqueezeBreakoutDetector(patterns types.PatternConfig, finder *levels.Finder, sizer *Sizer) *SqueezeBreakoutDetector {
	return &SqueezeBreakoutDetector{patterns: patterns, finder: finder, sizer: sizer}
}

// Type 形态类型
func (d *SqueezeBreakoutDetector) Type() types.SetupType {
	return types.SetupSqueezeBreakout
}

// Detect 检测挤压突破形态
func (d *SqueezeBreakoutDetector) Detect(s *types.Series, md *types.MarketData, cond types.MarketCondition) *types.TradingSetup {
	n := s.Len()
	if n < squeezeMinBars || !s.HasIndicators() {
		return nil
	}

	price := s.LastClose()
	if price == 0 {
		return nil
	}

	// ATR压缩：当前波动明显低于近期均值
	curATR := s.ATR[n-1]
	avgATR := 0.0
	for i := n - squeezeATRWindow; i < n; i++ {
		avgATR += s.ATR[i]
	}
	avgATR /= squeezeATRWindow
	if avgATR == 0 || curATR > avgATR*0.7 {
		return nil
	}

	all := append(d.finder.Resistance(s), d.finder.Support(s)...)
	nearest, ok := levels.Nearest(all, price)
	if !ok {
		return nil
	}
	dist := math.Abs(price-nearest) / price
	if dist > 0.015 {
		return nil
	}

	// 近10根K线的价格区间足够窄才算挤压
	rangeHigh := math.Inf(-1)
	rangeLow := math.Inf(1)
	for i := n - squeezeRangeWindow; i < n; i++ {
		if s.Candles[i].High > rangeHigh {
			rangeHigh = s.Candles[i].High
		}
		if s.Candles[i].Low < rangeLow {
			rangeLow = s.Candles[i].Low
		}
	}
	rangePct := (rangeHigh - rangeLow) / price * 100
	if rangePct > 5 {
		return nil
	}

	// 只做向上突破：关键价位必须在当前价上方
	if nearest <= price {
		return nil
	}

	entry := nearest * 1.005
	stop := price * (1 - d.patterns.StopLossPct/100)
	if entry <= stop {
		return nil
	}
	positionSize := d.sizer.PositionSize(entry, stop)

	confidence := 0.8
	if rangePct < 3 {
		confidence += 0.1
	}

	return &types.TradingSetup{
		Symbol:             md.Symbol,
		SetupType:          types.SetupSqueezeBreakout,
		EntryPrice:         entry,
		StopLoss:           stop,
		TakeProfit:         d.sizer.TakeProfit(entry, stop),
		RiskReward:         d.sizer.RiskReward(),
		Confidence:         capConfidence(confidence),
		Timestamp:          time.Now(),
		Description:        fmt.Sprintf("波动压缩（区间 %.2f%%），贴近关键价位 %.4f", rangePct, nearest),
		Leverage:           d.sizer.Leverage(positionSize, entry),
		PositionSize:       positionSize,
		RiskAmount:         d.sizer.RiskAmount(),
		MarketCondition:    cond,
		VolumeConfirmation: false,
		TrendConfirmation:  false,
		Details: types.SqueezeDetails{
			Level:           nearest,
			RangePct:        rangePct,
			ATRRatio:        curATR / avgATR,
			DistanceToLevel: dist,
		},
	}
}
