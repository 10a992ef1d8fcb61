package detector

import (
	"math"

	"crypto-setup-sentry/pkg/types"
)

// Sizer 仓位计算器：所有形态共用同一套风险/收益与仓位规则
type Sizer struct {
	risk          types.RiskConfig
	minRiskReward float64
}

// NewSizer 创建仓位计算器
func NewSizer(risk types.RiskConfig, minRiskReward float64) *Sizer {
	return &Sizer{risk: risk, minRiskReward: minRiskReward}
}

// RiskReward 统一的最小风险收益比
func (sz *Sizer) RiskReward() float64 {
	return sz.minRiskReward
}

// TakeProfit 目标价 = 入场价 + (入场价 - 止损价) × 风险收益比
func (sz *Sizer) TakeProfit(entry, stop float64) float64 {
	return entry + (entry-stop)*sz.minRiskReward
}

// RiskAmount 单笔风险金额 = 账户资金 × 风险占比
func (sz *Sizer) RiskAmount() float64 {
	return sz.risk.AccountBalance * (sz.risk.RiskPct / 100)
}

// PositionSize 仓位 = 风险金额 / 入场价与止损价的价差
func (sz *Sizer) PositionSize(entry, stop float64) float64 {
	diff := math.Abs(entry - stop)
	if diff == 0 {
		return 0
	}
	return sz.RiskAmount() / diff
}

// Leverage 所需杠杆，截断到配置的上下限内
func (sz *Sizer) Leverage(positionSize, entry float64) int {
	if sz.risk.AccountBalance == 0 {
		return sz.risk.MinLeverage
	}
	required := int(positionSize * entry / sz.risk.AccountBalance)

	if required < sz.risk.MinLeverage {
		return sz.risk.MinLeverage
	}
	if required > sz.risk.MaxLeverage {
		return sz.risk.MaxLeverage
	}
	return required
}

// capConfidence 置信度统一封顶0.95
func capConfidence(c float64) float64 {
	if c > 0.95 {
		return 0.95
	}
	return c
}
