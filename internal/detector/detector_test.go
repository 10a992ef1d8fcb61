package detector

import (
	"math"
	"testing"
	"time"

	"crypto-setup-sentry/internal/indicators"
	"crypto-setup-sentry/internal/levels"
	"crypto-setup-sentry/internal/storage"
	"crypto-setup-sentry/pkg/types"
)

func testPatterns() types.PatternConfig {
	return types.PatternConfig{
		BreakoutConfirmationPct: 0.5,
		LevelWindow:             5,
		HigherLowsMinCount:      3,
		StopLossPct:             2.0,
		MinRiskReward:           3.0,
	}
}

func testFilters() types.FilterConfig {
	return types.FilterConfig{
		VolumeMultiplier:      0.1,
		EnableDominanceFilter: false,
	}
}

func testConfig() *types.Config {
	return &types.Config{
		Filters:  testFilters(),
		Patterns: testPatterns(),
		Risk: types.RiskConfig{
			AccountBalance: 220,
			RiskPct:        5,
			MinLeverage:    10,
			MaxLeverage:    20,
		},
		Indicators: types.IndicatorConfig{
			RSIPeriod:       14,
			SMAFast:         20,
			SMASlow:         50,
			EMAPeriod:       21,
			VolumeSMAPeriod: 20,
			ATRPeriod:       14,
		},
		Scanner: types.ScannerConfig{CooldownMinutes: 60},
	}
}

func buildSeries(closes, highs, lows, volumes []float64) *types.Series {
	s := &types.Series{Symbol: "TEST-USDT"}
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range closes {
		s.Candles = append(s.Candles, &types.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      closes[i],
			High:      highs[i],
			Low:       lows[i],
			Close:     closes[i],
			Volume:    volumes[i],
		})
	}
	return s
}

// flatSeries 无形态的横盘序列
func flatSeries(n int) *types.Series {
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		highs[i] = 100.5
		lows[i] = 99.5
		volumes[i] = 1000
	}
	return buildSeries(closes, highs, lows, volumes)
}

// fillIndicators 手工填充全部指标列，测试完全控制取值
func fillIndicators(s *types.Series, rsi, atr float64) {
	n := s.Len()
	constant := func(v float64) []float64 {
		col := make([]float64, n)
		for i := range col {
			col[i] = v
		}
		return col
	}
	s.SMAFast = constant(s.Candles[0].Close)
	s.SMASlow = constant(s.Candles[0].Close)
	s.EMA = constant(s.Candles[0].Close)
	s.RSI = constant(rsi)
	s.VolumeSMA = constant(1000)
	s.VolumeRatio = constant(1)
	s.ATR = constant(atr)
}

func allDetectors(cfg *types.Config) []Detector {
	finder := levels.NewFinder(cfg.Patterns.LevelWindow)
	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	return []Detector{
		NewBreakoutDetector(cfg.Patterns, cfg.Filters, finder, sizer),
		NewHigherLowsDetector(cfg.Patterns, finder, sizer),
		NewImpulsePullbackDetector(cfg.Patterns, sizer),
		NewSqueezeBreakoutDetector(cfg.Patterns, finder, sizer),
	}
}

func assertSetupLaws(t *testing.T, setup *types.TradingSetup) {
	t.Helper()
	if setup.EntryPrice <= setup.StopLoss {
		t.Errorf("入场价必须高于止损价: entry=%v stop=%v", setup.EntryPrice, setup.StopLoss)
	}
	wantTP := setup.EntryPrice + (setup.EntryPrice-setup.StopLoss)*setup.RiskReward
	if math.Abs(setup.TakeProfit-wantTP) > 1e-9 {
		t.Errorf("止盈价不满足风险收益公式: got %v, want %v", setup.TakeProfit, wantTP)
	}
	if setup.Confidence < 0 || setup.Confidence > 0.95 {
		t.Errorf("置信度必须在[0, 0.95]内: %v", setup.Confidence)
	}
}

func TestDetectorsInsufficientData(t *testing.T) {
	cfg := testConfig()
	md := &types.MarketData{Symbol: "TEST-USDT"}
	s := flatSeries(10)

	for _, d := range allDetectors(cfg) {
		if got := d.Detect(s, md, types.ConditionBullish); got != nil {
			t.Errorf("%s: 数据不足时应返回nil", d.Type())
		}
	}
}

func TestDetectorsFlatSeriesNoSetups(t *testing.T) {
	cfg := testConfig()
	md := &types.MarketData{Symbol: "TEST-USDT"}

	s := flatSeries(100)
	indicators.NewCalculator(cfg.Indicators).Augment(s)

	for _, d := range allDetectors(cfg) {
		if got := d.Detect(s, md, types.ConditionSideways); got != nil {
			t.Errorf("%s: 横盘序列不应产生形态，got %+v", d.Type(), got)
		}
	}
}

func TestBreakoutDetection(t *testing.T) {
	cfg := testConfig()
	md := &types.MarketData{Symbol: "TEST-USDT"}

	// 前78根横盘，阻力位尖峰110，随后22根放量上攻至108.8
	n := 100
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i >= 78 {
			if (i-78)%2 == 0 {
				price += 1.4
			} else {
				price -= 0.6
			}
		}
		closes[i] = price
		highs[i] = price + 0.5
		lows[i] = price - 0.5
		volumes[i] = 1000
	}
	highs[60] = 110
	volumes[n-1] = 2500

	s := buildSeries(closes, highs, lows, volumes)
	indicators.NewCalculator(cfg.Indicators).Augment(s)

	finder := levels.NewFinder(cfg.Patterns.LevelWindow)
	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	d := NewBreakoutDetector(cfg.Patterns, cfg.Filters, finder, sizer)

	setup := d.Detect(s, md, types.ConditionBullish)
	if setup == nil {
		t.Fatal("应检出突破形态")
	}
	assertSetupLaws(t, setup)

	if setup.SetupType != types.SetupBreakout {
		t.Errorf("形态类型 = %s, want %s", setup.SetupType, types.SetupBreakout)
	}
	// 入场价 = 阻力位110 × (1 + 0.5%)
	if math.Abs(setup.EntryPrice-110*1.005) > 1e-9 {
		t.Errorf("入场价 = %v, want %v", setup.EntryPrice, 110*1.005)
	}
	// 量比>2且市场状态看多：0.6 + 0.1 + 0.1
	if math.Abs(setup.Confidence-0.8) > 1e-9 {
		t.Errorf("置信度 = %v, want 0.8", setup.Confidence)
	}
	if !setup.VolumeConfirmation {
		t.Error("放量突破应带成交量确认")
	}

	details, ok := setup.Details.(types.BreakoutDetails)
	if !ok {
		t.Fatalf("Details类型错误: %T", setup.Details)
	}
	if details.ResistanceLevel != 110 {
		t.Errorf("阻力位 = %v, want 110", details.ResistanceLevel)
	}
}

func TestHigherLowsDetection(t *testing.T) {
	cfg := testConfig()
	// 该场景的止损距离约14%，放宽止损上限让上限检查不挡住形态本身
	cfg.Patterns.StopLossPct = 20
	md := &types.MarketData{Symbol: "TEST-USDT"}

	// 缓慢上行的序列，三个逐级抬高的低点100/105/112，上方阻力130
	n := 60
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 119 + 0.05*float64(i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
		volumes[i] = 1000
	}
	lows[15] = 100
	lows[30] = 105
	lows[45] = 112
	highs[50] = 130

	s := buildSeries(closes, highs, lows, volumes)
	fillIndicators(s, 55, 1)

	finder := levels.NewFinder(cfg.Patterns.LevelWindow)
	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	d := NewHigherLowsDetector(cfg.Patterns, finder, sizer)

	setup := d.Detect(s, md, types.ConditionSideways)
	if setup == nil {
		t.Fatal("应检出上升低点形态")
	}
	assertSetupLaws(t, setup)

	if math.Abs(setup.EntryPrice-130*1.002) > 1e-9 {
		t.Errorf("入场价 = %v, want %v", setup.EntryPrice, 130*1.002)
	}
	if math.Abs(setup.StopLoss-112*0.995) > 1e-9 {
		t.Errorf("止损价 = %v, want %v", setup.StopLoss, 112*0.995)
	}
	// 非看多市场且低点数恰好3个：基础置信度0.75
	if math.Abs(setup.Confidence-0.75) > 1e-9 {
		t.Errorf("置信度 = %v, want 0.75", setup.Confidence)
	}

	details, ok := setup.Details.(types.HigherLowsDetails)
	if !ok {
		t.Fatalf("Details类型错误: %T", setup.Details)
	}
	if details.LowsCount != 3 || details.LastLow != 112 {
		t.Errorf("细节字段错误: %+v", details)
	}
}

// impulseSeries 8根K线脉冲上涨gain%、自高点回调30%、脉冲段放量2倍
func impulseSeries(gain float64) *types.Series {
	n := 40
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		highs[i] = 101
		lows[i] = 99
		volumes[i] = 1000
	}

	// 窗口首根收盘价100是脉冲涨幅的基准
	finalPrice := 100 * (1 + gain/100)
	peak := finalPrice / 0.7
	path := []float64{100, 125, peak - 2, peak - 10, peak - 20, finalPrice + 4, finalPrice + 1, finalPrice}
	for k, c := range path {
		i := 32 + k
		closes[i] = c
		highs[i] = c + 1
		lows[i] = c - 1
		volumes[i] = 2000
	}
	highs[34] = peak

	return buildSeries(closes, highs, lows, volumes)
}

func TestImpulsePullbackDetection(t *testing.T) {
	cfg := testConfig()
	md := &types.MarketData{Symbol: "TEST-USDT"}

	s := impulseSeries(12)

	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	d := NewImpulsePullbackDetector(cfg.Patterns, sizer)

	setup := d.Detect(s, md, types.ConditionBullish)
	if setup == nil {
		t.Fatal("应检出脉冲回调形态")
	}
	assertSetupLaws(t, setup)

	// 脉冲>10%且看多市场：0.7 + 0.1 + 0.1
	if setup.Confidence < 0.8 {
		t.Errorf("置信度 = %v, want >= 0.8", setup.Confidence)
	}
	if math.Abs(setup.EntryPrice-112*1.01) > 1e-9 {
		t.Errorf("入场价 = %v, want %v", setup.EntryPrice, 112*1.01)
	}

	details, ok := setup.Details.(types.ImpulsePullbackDetails)
	if !ok {
		t.Fatalf("Details类型错误: %T", setup.Details)
	}
	if math.Abs(details.ImpulsePct-12) > 1e-9 {
		t.Errorf("脉冲涨幅 = %v, want 12", details.ImpulsePct)
	}
}

func TestImpulsePullbackRejectsInvertedRisk(t *testing.T) {
	cfg := testConfig()
	// 负的止损比例会让止损价高于入场价，此时不允许产出形态
	cfg.Patterns.StopLossPct = -5
	md := &types.MarketData{Symbol: "TEST-USDT"}

	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	d := NewImpulsePullbackDetector(cfg.Patterns, sizer)

	if setup := d.Detect(impulseSeries(12), md, types.ConditionBullish); setup != nil {
		t.Errorf("入场价不高于止损价时应返回nil: entry=%v stop=%v",
			setup.EntryPrice, setup.StopLoss)
	}
}

func TestSqueezeDetection(t *testing.T) {
	cfg := testConfig()
	md := &types.MarketData{Symbol: "TEST-USDT"}

	// 横盘挤压：ATR收缩到均值的一半，价格贴近上方100.5的阻力
	s := flatSeries(60)
	fillIndicators(s, 55, 1)
	s.ATR[s.Len()-1] = 0.5

	finder := levels.NewFinder(cfg.Patterns.LevelWindow)
	sizer := NewSizer(cfg.Risk, cfg.Patterns.MinRiskReward)
	d := NewSqueezeBreakoutDetector(cfg.Patterns, finder, sizer)

	setup := d.Detect(s, md, types.ConditionSideways)
	if setup == nil {
		t.Fatal("应检出挤压突破形态")
	}
	assertSetupLaws(t, setup)

	// 区间1% < 3%：0.8 + 0.1
	if math.Abs(setup.Confidence-0.9) > 1e-9 {
		t.Errorf("置信度 = %v, want 0.9", setup.Confidence)
	}
	if math.Abs(setup.EntryPrice-100.5*1.005) > 1e-9 {
		t.Errorf("入场价 = %v, want %v", setup.EntryPrice, 100.5*1.005)
	}

	details, ok := setup.Details.(types.SqueezeDetails)
	if !ok {
		t.Fatalf("Details类型错误: %T", setup.Details)
	}
	if details.Level != 100.5 {
		t.Errorf("关键价位 = %v, want 100.5", details.Level)
	}
}

func TestGateRejects(t *testing.T) {
	g := NewGate(types.FilterConfig{
		EnableDominanceFilter: true,
		DominanceThreshold:    45,
		VolumeMultiplier:      0.1,
	})

	empty := &types.Series{Symbol: "TEST-USDT"}
	if g.Admit(empty, &types.MarketData{Symbol: "TEST-USDT", BTCDominance: 50}) {
		t.Error("空序列应被拒绝")
	}

	s := flatSeries(30)
	if g.Admit(s, &types.MarketData{Symbol: "TEST-USDT", BTCDominance: 40}) {
		t.Error("BTC占比低于阈值应被拒绝")
	}
	if !g.Admit(s, &types.MarketData{Symbol: "TEST-USDT", BTCDominance: 50}) {
		t.Error("无指标列的序列通过占比过滤后应放行")
	}
}

func TestEngineRecordsCooldown(t *testing.T) {
	cfg := testConfig()
	st := storage.NewScanState(types.RedisConfig{}, time.Duration(cfg.Scanner.CooldownMinutes)*time.Minute)
	engine := NewEngine(cfg, st)

	md := &types.MarketData{Symbol: "IMP-USDT", BTCDominance: 50}
	setups := engine.DetectAll(impulseSeries(12), md)

	if len(setups) != 1 {
		t.Fatalf("应只检出脉冲回调形态，got %d", len(setups))
	}
	assertSetupLaws(t, setups[0])

	// 触发即进入冷却
	if !st.InCooldown("IMP-USDT", setups[0].Timestamp.Add(30*time.Minute)) {
		t.Error("检出形态后交易对应进入冷却期")
	}
	if st.InCooldown("IMP-USDT", setups[0].Timestamp.Add(61*time.Minute)) {
		t.Error("冷却窗口过后应解除")
	}
}
