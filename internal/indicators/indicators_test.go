package indicators

import (
	"math"
	"testing"
	"time"

	"crypto-setup-sentry/pkg/types"
)

func testSeries(closes []float64) *types.Series {
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

func defaultIndicatorConfig() types.IndicatorConfig {
	return types.IndicatorConfig{
		RSIPeriod:       14,
		SMAFast:         20,
		SMASlow:         50,
		EMAPeriod:       21,
		VolumeSMAPeriod: 20,
		ATRPeriod:       14,
	}
}

func TestAugmentShortSeriesAddsNoColumns(t *testing.T) {
	calc := NewCalculator(defaultIndicatorConfig())

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	s := testSeries(closes)

	calc.Augment(s)

	if s.HasIndicators() {
		t.Error("30根K线不足以计算SMA50，不应添加指标列")
	}
	if s.Len() != 30 {
		t.Errorf("数据不足时序列不应被裁剪，got %d", s.Len())
	}
}

func TestAugmentTrimsWarmupAndLeavesNoNaN(t *testing.T) {
	calc := NewCalculator(defaultIndicatorConfig())

	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	s := testSeries(closes)

	calc.Augment(s)

	if !s.HasIndicators() {
		t.Fatal("120根K线应产生完整指标列")
	}
	// SMA50是最慢的指标，首个完整行在第49根，裁剪后剩120-49根
	if s.Len() != 71 {
		t.Errorf("预热区裁剪后长度应为71，got %d", s.Len())
	}

	columns := [][]float64{s.SMAFast, s.SMASlow, s.EMA, s.RSI, s.VolumeSMA, s.VolumeRatio, s.ATR}
	for ci, col := range columns {
		for i, v := range col {
			if math.IsNaN(v) {
				t.Fatalf("裁剪后第%d列第%d行仍为NaN", ci, i)
			}
		}
	}
}

func TestTrimWarmupAllUndefined(t *testing.T) {
	s := testSeries([]float64{100, 101, 102})
	s.SMAFast = nanSlice(3)
	s.SMASlow = nanSlice(3)
	s.EMA = nanSlice(3)
	s.RSI = nanSlice(3)
	s.VolumeSMA = nanSlice(3)
	s.VolumeRatio = nanSlice(3)
	s.ATR = nanSlice(3)

	TrimWarmup(s)

	if s.Len() != 0 {
		t.Errorf("全NaN序列裁剪后应为空，got %d", s.Len())
	}
}

func TestSMA(t *testing.T) {
	result := sma([]float64{1, 2, 3, 4}, 2)

	if !math.IsNaN(result[0]) {
		t.Error("窗口未满时SMA应为NaN")
	}
	want := []float64{1.5, 2.5, 3.5}
	for i, w := range want {
		if math.Abs(result[i+1]-w) > 1e-9 {
			t.Errorf("SMA[%d] = %v, want %v", i+1, result[i+1], w)
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	result := rsi(closes, 14)

	if math.Abs(result[len(result)-1]-100) > 1e-9 {
		t.Errorf("单边上涨序列RSI应为100，got %v", result[len(result)-1])
	}
}

func TestVolumeRatioFallback(t *testing.T) {
	volumes := make([]float64, 25)
	volSMA := sma(volumes, 20)
	result := volumeRatio(volumes, volSMA)

	// 0/0的量比回填为1.0
	if result[24] != 1.0 {
		t.Errorf("除零量比应回填1.0，got %v", result[24])
	}
}
