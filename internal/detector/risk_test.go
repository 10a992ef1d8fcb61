package detector

import (
	"math"
	"testing"

	"crypto-setup-sentry/pkg/types"
)

func testSizer() *Sizer {
	return NewSizer(types.RiskConfig{
		AccountBalance: 220,
		RiskPct:        5,
		MinLeverage:    10,
		MaxLeverage:    20,
	}, 3)
}

func TestTakeProfitLaw(t *testing.T) {
	sz := testSizer()

	// 目标价 = 入场 + (入场-止损) × 盈亏比
	got := sz.TakeProfit(100, 98)
	if math.Abs(got-106) > 1e-9 {
		t.Errorf("TakeProfit(100, 98) = %v, want 106", got)
	}
}

func TestRiskAmountAndPositionSize(t *testing.T) {
	sz := testSizer()

	if got := sz.RiskAmount(); math.Abs(got-11) > 1e-9 {
		t.Errorf("RiskAmount = %v, want 11", got)
	}
	if got := sz.PositionSize(100, 98); math.Abs(got-5.5) > 1e-9 {
		t.Errorf("PositionSize(100, 98) = %v, want 5.5", got)
	}
	if got := sz.PositionSize(100, 100); got != 0 {
		t.Errorf("价差为零时仓位应为0，got %v", got)
	}
}

func TestLeverageClamp(t *testing.T) {
	sz := testSizer()

	if got := sz.Leverage(5.5, 100); got != 10 {
		t.Errorf("所需杠杆低于下限时应取下限，got %d", got)
	}
	if got := sz.Leverage(33, 100); got != 15 {
		t.Errorf("Leverage(33, 100) = %d, want 15", got)
	}
	if got := sz.Leverage(220, 100); got != 20 {
		t.Errorf("所需杠杆高于上限时应取上限，got %d", got)
	}
}

func TestCapConfidence(t *testing.T) {
	if got := capConfidence(1.2); got != 0.95 {
		t.Errorf("置信度应封顶0.95，got %v", got)
	}
	if got := capConfidence(0.8); got != 0.8 {
		t.Errorf("未超限的置信度不应改变，got %v", got)
	}
}
