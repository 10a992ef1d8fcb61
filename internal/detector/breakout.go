package detector

import (
	"fmt"
	"math"
	"time"

	"crypto-setup-sentry/internal/levels"
	"crypto-setup-sentry/pkg/types"
)

// 突破检测所需的最小K线数
const breakoutMinBars = 50

// BreakoutDetector 阻力位突破检测器：价格放量逼近上方阻力位
type BreakoutDetector struct {
	patterns types.PatternConfig
	filters  types.FilterConfig
	finder   *levels.Finder
	sizer    *Sizer
}

// NewBreakoutDetector 创建突破检测器
func NewBreakoutDetector(patterns types.PatternConfig, filters types.FilterConfig, finder *levels.Finder, sizer *Sizer) *BreakoutDetector {
	return &BreakoutDetector{patterns: patterns, filters: filters, finder: finder, sizer: sizer}
}

// Type 形态类型
func (d *BreakoutDetector) Type() types.SetupType {
	return types.SetupBreakout
}

// Detect 检测突破形态，未满足条件时返回nil（数据不足同样返回nil，不是错误）
func (d *BreakoutDetector) Detect(s *types.Series, md *types.MarketData, cond types.MarketCondition) *types.TradingSetup {
	if s.Len() < breakoutMinBars || !s.HasIndicators() {
		return nil
	}

	resistance := d.finder.Resistance(s)
	if len(resistance) == 0 {
		return nil
	}

	price := s.LastClose()
	volumeRatio := s.VolumeRatio[s.Len()-1]
	rsi := s.RSI[s.Len()-1]

	// 距离当前价最近、且严格高于price*0.995的阻力位
	nearest, ok := levels.NearestAbove(resistance, price, price*0.995)
	if !ok {
		return nil
	}

	distance := math.Abs(price-nearest) / price
	if distance >= 0.02 {
		return nil
	}
	if volumeRatio <= d.filters.VolumeMultiplier*0.8 {
		return nil
	}
	if rsi <= 30 || rsi >= 80 {
		return nil
	}
	if price <= s.SMAFast[s.Len()-1] {
		return nil
	}

	entry := nearest * (1 + d.patterns.BreakoutConfirmationPct/100)
	stop := price * (1 - d.patterns.StopLossPct/100)
	if entry <= stop {
		return nil
	}

	positionSize := d.sizer.PositionSize(entry, stop)

	confidence := 0.6
	if volumeRatio > 2.0 {
		confidence += 0.1
	}
	if cond == types.ConditionBullish {
		confidence += 0.1
	}
	if distance < 0.01 {
		confidence += 0.1
	}

	return &types.TradingSetup{
		Symbol:             md.Symbol,
		SetupType:          types.SetupBreakout,
		EntryPrice:         entry,
		StopLoss:           stop,
		TakeProfit:         d.sizer.TakeProfit(entry, stop),
		RiskReward:         d.sizer.RiskReward(),
		Confidence:         capConfidence(confidence),
		Timestamp:          time.Now(),
		Description:        fmt.Sprintf("放量逼近阻力位 %.4f，等待突破确认", nearest),
		Leverage:           d.sizer.Leverage(positionSize, entry),
		PositionSize:       positionSize,
		RiskAmount:         d.sizer.RiskAmount(),
		MarketCondition:    cond,
		VolumeConfirmation: volumeRatio > d.filters.VolumeMultiplier,
		TrendConfirmation:  price > s.EMA[s.Len()-1],
		Details: types.BreakoutDetails{
			ResistanceLevel:      nearest,
			VolumeRatio:          volumeRatio,
			RSI:                  rsi,
			DistanceToResistance: distance,
		},
	}
}
