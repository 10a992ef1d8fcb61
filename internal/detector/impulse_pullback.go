package detector

import (
	"fmt"
	"time"

	"crypto-setup-sentry/pkg/types"
)

const (
	// 脉冲回调检测所需的最小K线数
	impulseMinBars = 30
	// 脉冲段K线数
	impulseBars = 8
	// 成交量基准窗口：脉冲段之前的22根K线
	impulseVolumeBaseline = 22
)

// ImpulsePullbackDetector 脉冲回调检测器：急涨后的健康回调
type ImpulsePullbackDetector struct {
	patterns types.PatternConfig
	sizer    *Sizer
}

// NewImpulsePullbackDetector 创建脉冲回调检测器
func NewImpulsePullbackDetector(patterns types.PatternConfig, sizer *Sizer) *ImpulsePullbackDetector {
	return &ImpulsePullbackDetector{patterns: patterns, sizer: sizer}
}

// Type 形态类型
func (d *ImpulsePullbackDetector) Type() types.SetupType {
	return types.SetupImpulsePullback
}

// Detect 检测脉冲回调形态，仅依赖原始K线数据
func (d *ImpulsePullbackDetector) Detect(s *types.Series, md *types.MarketData, cond types.MarketCondition) *types.TradingSetup {
	n := s.Len()
	if n < impulseMinBars {
		return nil
	}

	price := s.LastClose()
	start := s.Candles[n-impulseBars].Close
	if start == 0 {
		return nil
	}

	impulsePct := (price - start) / start * 100
	if impulsePct < 5 {
		return nil
	}

	recentHigh := 0.0
	for i := n - impulseBars; i < n; i++ {
		if s.Candles[i].High > recentHigh {
			recentHigh = s.Candles[i].High
		}
	}
	if recentHigh == 0 {
		return nil
	}

	// 回调幅度：从脉冲高点回撤的比例，过浅说明未回调，过深说明趋势破坏
	pullbackPct := (recentHigh - price) / recentHigh * 100
	if pullbackPct < 20 || pullbackPct > 50 {
		return nil
	}

	// 成交量确认需要脉冲段之前的完整基准窗口
	if n < impulseBars+impulseVolumeBaseline {
		return nil
	}
	impulseVol := 0.0
	for i := n - impulseBars; i < n; i++ {
		impulseVol += s.Candles[i].Volume
	}
	impulseVol /= impulseBars

	avgVol := 0.0
	for i := n - impulseBars - impulseVolumeBaseline; i < n-impulseBars; i++ {
		avgVol += s.Candles[i].Volume
	}
	avgVol /= impulseVolumeBaseline

	if avgVol == 0 || impulseVol < avgVol*1.5 {
		return nil
	}

	entry := price * 1.01
	stop := price * (1 - d.patterns.StopLossPct/100)
	if entry <= stop {
		return nil
	}
	positionSize := d.sizer.PositionSize(entry, stop)

	confidence := 0.7
	if impulsePct > 10 {
		confidence += 0.1
	}
	if cond == types.ConditionBullish {
		confidence += 0.1
	}

	return &types.TradingSetup{
		Symbol:             md.Symbol,
		SetupType:          types.SetupImpulsePullback,
		EntryPrice:         entry,
		StopLoss:           stop,
		TakeProfit:         d.sizer.TakeProfit(entry, stop),
		RiskReward:         d.sizer.RiskReward(),
		Confidence:         capConfidence(confidence),
		Timestamp:          time.Now(),
		Description:        fmt.Sprintf("脉冲上涨 %.1f%%，回调 %.1f%%，脉冲段放量", impulsePct, pullbackPct),
		Leverage:           d.sizer.Leverage(positionSize, entry),
		PositionSize:       positionSize,
		RiskAmount:         d.sizer.RiskAmount(),
		MarketCondition:    cond,
		VolumeConfirmation: true,
		TrendConfirmation:  impulsePct > 0,
		Details: types.ImpulsePullbackDetails{
			ImpulsePct:  impulsePct,
			PullbackPct: pullbackPct,
			ImpulseBars: impulseBars,
			RecentHigh:  recentHigh,
		},
	}
}
