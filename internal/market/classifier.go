package market

import (
	"math"

	"crypto-setup-sentry/pkg/types"
)

// 分类所需的最小K线数
const minClassifyBars = 20

// 趋势斜率取最近10根收盘价
const trendBars = 10

// Classifier 市场状态分类器：趋势斜率 + 波动率
type Classifier struct{}

// NewClassifier 创建分类器
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify 返回 bullish/bearish/sideways，K线不足20根时返回 neutral
func (c *Classifier) Classify(s *types.Series) types.MarketCondition {
	if s.Len() < minClassifyBars {
		return types.ConditionNeutral
	}

	closes := make([]float64, 0, trendBars)
	for i := s.Len() - trendBars; i < s.Len(); i++ {
		closes = append(closes, s.Candles[i].Close)
	}
	slope := Slope(closes)

	volatility := returnsStdDev(s) * 100

	switch {
	case slope > 0 && volatility < 5:
		return types.ConditionBullish
	case slope < 0 && volatility < 5:
		return types.ConditionBearish
	default:
		// 斜率恰好为零也落到这里
		return types.ConditionSideways
	}
}

// OverviewTrend 市场总览的BTC趋势：零斜率为 neutral，
// 与单交易对分类的零斜率默认值（sideways）是两套独立的规则
func OverviewTrend(dailyCloses []float64) types.MarketCondition {
	if len(dailyCloses) < 2 {
		return types.ConditionNeutral
	}

	slope := Slope(dailyCloses)
	switch {
	case slope > 0:
		return types.ConditionBullish
	case slope < 0:
		return types.ConditionBearish
	default:
		return types.ConditionNeutral
	}
}

// Slope 最小二乘直线斜率，x为序号
func Slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// returnsStdDev 相邻收盘价收益率的标准差（整个可用窗口）
func returnsStdDev(s *types.Series) float64 {
	if s.Len() < 2 {
		return 0
	}

	returns := make([]float64, 0, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		prev := s.Candles[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (s.Candles[i].Close-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance)
}
