package levels

import (
	"sort"

	"crypto-setup-sentry/pkg/types"
)

// Finder 支撑/阻力位搜索器：基于居中滚动极值的局部极点
type Finder struct {
	window int
}

// NewFinder 创建搜索器，window为单侧窗口大小
func NewFinder(window int) *Finder {
	return &Finder{window: window}
}

// Resistance 阻力位：某根K线的最高价等于以它为中心2w+1根K线的滚动最大值
func (f *Finder) Resistance(s *types.Series) []float64 {
	return f.find(s, func(k *types.Candle) float64 { return k.High }, true)
}

// Support 支撑位：对称规则，取最低价与滚动最小值
func (f *Finder) Support(s *types.Series) []float64 {
	return f.find(s, func(k *types.Candle) float64 { return k.Low }, false)
}

func (f *Finder) find(s *types.Series, value func(*types.Candle) float64, max bool) []float64 {
	w := f.window
	if s.Len() < 2*w+1 {
		return nil
	}

	var candidates []float64
	for i := w; i < s.Len()-w; i++ {
		extreme := value(s.Candles[i-w])
		for j := i - w + 1; j <= i+w; j++ {
			v := value(s.Candles[j])
			if max && v > extreme {
				extreme = v
			}
			if !max && v < extreme {
				extreme = v
			}
		}
		if value(s.Candles[i]) == extreme {
			candidates = append(candidates, value(s.Candles[i]))
		}
	}

	return merge(candidates)
}

// merge 升序排列后合并相邻过近的位：与已保留位相差不足1%的候选被丢弃
func merge(candidates []float64) []float64 {
	if len(candidates) == 0 {
		return nil
	}

	sort.Float64s(candidates)

	var unique []float64
	for _, level := range candidates {
		if len(unique) == 0 || relDistance(level, unique[len(unique)-1]) > 0.01 {
			unique = append(unique, level)
		}
	}
	return unique
}

func relDistance(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if a == 0 {
		return 0
	}
	return d / a
}

// NearestAbove 严格高于floor的位中距价格最近的一个，不存在时返回(0,false)
func NearestAbove(levels []float64, price, floor float64) (float64, bool) {
	best, found := 0.0, false
	bestDist := 0.0
	for _, level := range levels {
		if level <= floor {
			continue
		}
		dist := level - price
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			best, bestDist, found = level, dist, true
		}
	}
	return best, found
}

// Nearest 距价格最近的位，不存在时返回(0,false)
func Nearest(levels []float64, price float64) (float64, bool) {
	best, found := 0.0, false
	bestDist := 0.0
	for _, level := range levels {
		dist := level - price
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			best, bestDist, found = level, dist, true
		}
	}
	return best, found
}
