package detector

import (
	"go.uber.org/zap"

	"crypto-setup-sentry/pkg/types"
)

// Gate 检测前的基础过滤：按顺序检查，首个失败即拒绝。
// 冷却窗口由调度方在调用Admit之前检查，不在这里处理。
type Gate struct {
	filters types.FilterConfig
}

// NewGate 创建过滤器
func NewGate(filters types.FilterConfig) *Gate {
	return &Gate{filters: filters}
}

// Admit 交易对是否进入检测流程
func (g *Gate) Admit(s *types.Series, md *types.MarketData) bool {
	symbol := md.Symbol

	// 指标补齐后序列为空则直接拒绝
	if s.Len() == 0 {
		zap.L().Warn("序列在指标补齐后为空，跳过", zap.String("symbol", symbol))
		return false
	}

	// BTC市场占比过滤
	if g.filters.EnableDominanceFilter {
		if md.BTCDominance < g.filters.DominanceThreshold {
			zap.L().Debug("BTC占比不足，拒绝",
				zap.String("symbol", symbol),
				zap.Float64("dominance", md.BTCDominance),
				zap.Float64("threshold", g.filters.DominanceThreshold))
			return false
		}
	}

	// 量比过滤。注意：默认阈值0.1低于1.0，该过滤几乎恒通过，
	// 属于沿用的配置问题，比较语义保持 ratio >= threshold 不变
	if len(s.VolumeRatio) == s.Len() {
		ratio := s.VolumeRatio[s.Len()-1]
		if ratio < g.filters.VolumeMultiplier {
			zap.L().Debug("量比不足，拒绝",
				zap.String("symbol", symbol),
				zap.Float64("ratio", ratio),
				zap.Float64("threshold", g.filters.VolumeMultiplier))
			return false
		}
	}

	// 趋势过滤：收盘价不低于EMA的99.5%（允许0.5%的容差）
	if len(s.EMA) == s.Len() {
		price := s.LastClose()
		ema := s.EMA[s.Len()-1]
		if price < ema*0.995 {
			zap.L().Debug("价格低于EMA容差区间，拒绝",
				zap.String("symbol", symbol),
				zap.Float64("price", price),
				zap.Float64("ema", ema))
			return false
		}
	}

	return true
}
