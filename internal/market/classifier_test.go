package market

import (
	"testing"
	"time"

	"crypto-setup-sentry/pkg/types"
)

func seriesFromCloses(closes []float64) *types.Series {
	s := &types.Series{Symbol: "TEST-USDT"}
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Candles = append(s.Candles, &types.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1000,
		})
	}
	return s
}

func TestClassifyNeutralOnlyWhenShort(t *testing.T) {
	c := NewClassifier()

	closes := make([]float64, 19)
	for i := range closes {
		closes[i] = 100
	}
	if got := c.Classify(seriesFromCloses(closes)); got != types.ConditionNeutral {
		t.Errorf("19根K线应为neutral，got %s", got)
	}

	// 恰好20根就不再是neutral
	closes = append(closes, 100)
	if got := c.Classify(seriesFromCloses(closes)); got == types.ConditionNeutral {
		t.Error("20根K线不应再返回neutral")
	}
}

func TestClassifyBullish(t *testing.T) {
	c := NewClassifier()

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + 0.1*float64(i)
	}
	if got := c.Classify(seriesFromCloses(closes)); got != types.ConditionBullish {
		t.Errorf("低波动上升趋势应为bullish，got %s", got)
	}
}

func TestClassifyBearish(t *testing.T) {
	c := NewClassifier()

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - 0.1*float64(i)
	}
	if got := c.Classify(seriesFromCloses(closes)); got != types.ConditionBearish {
		t.Errorf("低波动下降趋势应为bearish，got %s", got)
	}
}

func TestClassifySidewaysOnHighVolatility(t *testing.T) {
	c := NewClassifier()

	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 115
		}
	}
	if got := c.Classify(seriesFromCloses(closes)); got != types.ConditionSideways {
		t.Errorf("高波动序列应为sideways，got %s", got)
	}
}

func TestClassifyZeroSlopeSideways(t *testing.T) {
	c := NewClassifier()

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	// 单交易对分类零斜率落在sideways
	if got := c.Classify(seriesFromCloses(closes)); got != types.ConditionSideways {
		t.Errorf("零斜率应为sideways，got %s", got)
	}
}

func TestOverviewTrendZeroSlopeNeutral(t *testing.T) {
	// 市场总览的零斜率为neutral，与单交易对不同
	if got := OverviewTrend([]float64{100, 100, 100}); got != types.ConditionNeutral {
		t.Errorf("总览零斜率应为neutral，got %s", got)
	}
	if got := OverviewTrend([]float64{100}); got != types.ConditionNeutral {
		t.Errorf("数据不足应为neutral，got %s", got)
	}
	if got := OverviewTrend([]float64{100, 105, 110}); got != types.ConditionBullish {
		t.Errorf("上升总览应为bullish，got %s", got)
	}
}

func TestSlope(t *testing.T) {
	got := Slope([]float64{1, 3, 5, 7})
	if got < 1.999 || got > 2.001 {
		t.Errorf("线性序列斜率应为2，got %v", got)
	}

	if got := Slope([]float64{5}); got != 0 {
		t.Errorf("单点斜率应为0，got %v", got)
	}
}
