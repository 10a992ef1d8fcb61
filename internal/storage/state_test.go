package storage

import (
	"testing"
	"time"

	"crypto-setup-sentry/pkg/types"
)

func newMemoryState(cooldown time.Duration) *ScanState {
	// 空URL表示纯内存模式，测试不依赖Redis
	return NewScanState(types.RedisConfig{}, cooldown)
}

func TestCooldownWindow(t *testing.T) {
	st := newMemoryState(60 * time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if st.InCooldown("BTC-USDT", now) {
		t.Error("从未触发过的交易对不应处于冷却期")
	}

	st.RecordAlert("BTC-USDT", now)

	if !st.InCooldown("BTC-USDT", now.Add(30*time.Minute)) {
		t.Error("触发后30分钟应仍处于冷却期")
	}
	if st.InCooldown("BTC-USDT", now.Add(61*time.Minute)) {
		t.Error("冷却窗口过后不应再处于冷却期")
	}
	if st.InCooldown("ETH-USDT", now) {
		t.Error("冷却期只作用于触发过的交易对")
	}
}

func TestSetupDedup(t *testing.T) {
	st := newMemoryState(time.Hour)
	key := "BTC-USDT|Breakout|2025-06-01"

	if st.SeenSetup(key) {
		t.Error("未记录过的键不应命中去重")
	}
	st.RecordSetup(key)
	if !st.SeenSetup(key) {
		t.Error("记录过的键应命中去重")
	}
	if st.SeenSetup("BTC-USDT|Breakout|2025-06-02") {
		t.Error("不同日期的键不应命中去重")
	}
}

func TestTickerCache(t *testing.T) {
	st := newMemoryState(time.Hour)

	if st.Ticker("BTC-USDT") != nil {
		t.Error("未缓存的行情应返回nil")
	}

	st.StoreTicker(&types.MarketData{Symbol: "BTC-USDT", Price: 50000})

	got := st.Ticker("BTC-USDT")
	if got == nil || got.Price != 50000 {
		t.Errorf("缓存行情读取失败: %+v", got)
	}
}
