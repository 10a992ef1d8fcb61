package indicators

import (
	"math"

	"crypto-setup-sentry/pkg/types"
)

// Calculator 技术指标计算器：在K线序列上补齐全部衍生指标列
type Calculator struct {
	cfg types.IndicatorConfig
}

// NewCalculator 创建指标计算器
func NewCalculator(cfg types.IndicatorConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// MinBars 指标齐备所需的最小K线数（以最慢的SMA为准）
func (c *Calculator) MinBars() int {
	return c.cfg.SMASlow
}

// Augment 计算全部指标列并裁剪掉预热区。
// 数据量不足预热长度时不添加任何指标列，调用方把空列当作"数据不足"。
func (c *Calculator) Augment(s *types.Series) {
	if s == nil || s.Len() < c.MinBars() {
		return
	}

	closes := make([]float64, s.Len())
	highs := make([]float64, s.Len())
	lows := make([]float64, s.Len())
	volumes := make([]float64, s.Len())
	for i, k := range s.Candles {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
		volumes[i] = k.Volume
	}

	s.SMAFast = sma(closes, c.cfg.SMAFast)
	s.SMASlow = sma(closes, c.cfg.SMASlow)
	s.EMA = ema(closes, c.cfg.EMAPeriod)
	s.RSI = rsi(closes, c.cfg.RSIPeriod)
	s.VolumeSMA = sma(volumes, c.cfg.VolumeSMAPeriod)
	s.VolumeRatio = volumeRatio(volumes, s.VolumeSMA)
	s.ATR = atr(highs, lows, closes, c.cfg.ATRPeriod)

	TrimWarmup(s)
}

// TrimWarmup 把序列截断为所有指标列都有定义的最长后缀。
// 指标预热区的未定义值（NaN）在这里被统一剔除，而不是散落在各个检测器里。
func TrimWarmup(s *types.Series) {
	if s == nil || !aligned(s) {
		return
	}

	start := 0
	for i := 0; i < s.Len(); i++ {
		if rowDefined(s, i) {
			start = i
			break
		}
		if i == s.Len()-1 {
			// 整条序列都没有完整的指标行
			start = s.Len()
		}
	}

	s.Candles = s.Candles[start:]
	s.SMAFast = s.SMAFast[start:]
	s.SMASlow = s.SMASlow[start:]
	s.EMA = s.EMA[start:]
	s.RSI = s.RSI[start:]
	s.VolumeSMA = s.VolumeSMA[start:]
	s.VolumeRatio = s.VolumeRatio[start:]
	s.ATR = s.ATR[start:]
}

func aligned(s *types.Series) bool {
	n := s.Len()
	return n > 0 &&
		len(s.SMAFast) == n && len(s.SMASlow) == n && len(s.EMA) == n &&
		len(s.RSI) == n && len(s.VolumeSMA) == n && len(s.VolumeRatio) == n &&
		len(s.ATR) == n
}

func rowDefined(s *types.Series, i int) bool {
	return !math.IsNaN(s.SMAFast[i]) && !math.IsNaN(s.SMASlow[i]) &&
		!math.IsNaN(s.EMA[i]) && !math.IsNaN(s.RSI[i]) &&
		!math.IsNaN(s.VolumeSMA[i]) && !math.IsNaN(s.VolumeRatio[i]) &&
		!math.IsNaN(s.ATR[i])
}

// sma 简单移动平均，窗口未满时为NaN
func sma(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			result[i] = sum / float64(window)
		}
	}
	return result
}

// ema 指数移动平均，以首个窗口的SMA作为种子
func ema(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	seed := 0.0
	for i := 0; i < window; i++ {
		seed += values[i]
	}
	seed /= float64(window)
	result[window-1] = seed

	alpha := 2.0 / float64(window+1)
	prev := seed
	for i := window; i < len(values); i++ {
		prev = values[i]*alpha + prev*(1-alpha)
		result[i] = prev
	}
	return result
}

// rsi 相对强弱指标，Wilder平滑
func rsi(closes []float64, period int) []float64 {
	result := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return result
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// atr 平均真实波幅，Wilder平滑
func atr(highs, lows, closes []float64, period int) []float64 {
	result := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return result
	}

	// 真实波幅 = max(high-low, |high-prevClose|, |low-prevClose|)
	tr := make([]float64, len(closes))
	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += tr[i]
	}
	seed /= float64(period)
	result[period] = seed

	prev := seed
	for i := period + 1; i < len(closes); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		result[i] = prev
	}
	return result
}

// volumeRatio 量比 = 成交量 / 成交量均线，除零或未定义时回填1.0
func volumeRatio(volumes, volumeSMA []float64) []float64 {
	result := nanSlice(len(volumes))
	for i := range volumes {
		if math.IsNaN(volumeSMA[i]) {
			continue
		}
		ratio := volumes[i] / volumeSMA[i]
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			ratio = 1.0
		}
		result[i] = ratio
	}
	return result
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
