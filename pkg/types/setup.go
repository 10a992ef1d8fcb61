package types

import "time"

// SetupType 形态类型标签
type SetupType string

const (
	SetupBreakout        SetupType = "Breakout"
	SetupHigherLows      SetupType = "Higher Lows"
	SetupImpulsePullback SetupType = "Impulse Pullback"
	SetupSqueezeBreakout SetupType = "Squeeze Breakout"
)

// TradingSetup 检测器输出的交易机会，创建后只读
type TradingSetup struct {
	Symbol             string          `json:"symbol"`
	SetupType          SetupType       `json:"setup_type"`
	EntryPrice         float64         `json:"entry_price"`
	StopLoss           float64         `json:"stop_loss"`
	TakeProfit         float64         `json:"take_profit"`
	RiskReward         float64         `json:"risk_reward"`
	Confidence         float64         `json:"confidence"` // [0, 0.95]
	Timestamp          time.Time       `json:"timestamp"`
	Description        string          `json:"description"`
	Leverage           int             `json:"leverage"`
	PositionSize       float64         `json:"position_size"`
	RiskAmount         float64         `json:"risk_amount"`
	MarketCondition    MarketCondition `json:"market_condition"`
	VolumeConfirmation bool            `json:"volume_confirmation"`
	TrendConfirmation  bool            `json:"trend_confirmation"`
	Details            SetupDetails    `json:"details"`
}

// DedupKey 去重键：同一交易对、同一形态、同一天只保留一个
func (s *TradingSetup) DedupKey() string {
	return s.Symbol + "|" + string(s.SetupType) + "|" + s.Timestamp.Format("2006-01-02")
}

// SetupDetails 每种形态各自携带的附加字段，按SetupType区分
type SetupDetails interface {
	setupDetails()
}

// BreakoutDetails 突破形态附加数据
type BreakoutDetails struct {
	ResistanceLevel      float64 `json:"resistance_level"`
	VolumeRatio          float64 `json:"volume_ratio"`
	RSI                  float64 `json:"rsi"`
	DistanceToResistance float64 `json:"distance_to_resistance"`
}

// HigherLowsDetails 上升低点形态附加数据
type HigherLowsDetails struct {
	LowsCount       int     `json:"lows_count"`
	ResistanceLevel float64 `json:"resistance_level"`
	LastLow         float64 `json:"last_low"`
	RSI             float64 `json:"rsi"`
}

// ImpulsePullbackDetails 冲高回调形态附加数据
type ImpulsePullbackDetails struct {
	ImpulsePct  float64 `json:"impulse_pct"`
	PullbackPct float64 `json:"pullback_pct"`
	ImpulseBars int     `json:"impulse_bars"`
	RecentHigh  float64 `json:"recent_high"`
}

// SqueezeDetails 收缩突破形态附加数据
type SqueezeDetails struct {
	Level           float64 `json:"level"`
	RangePct        float64 `json:"range_pct"`
	ATRRatio        float64 `json:"atr_ratio"`
	DistanceToLevel float64 `json:"distance_to_level"`
}

func (BreakoutDetails) setupDetails()        {}
func (HigherLowsDetails) setupDetails()      {}
func (ImpulsePullbackDetails) setupDetails() {}
func (SqueezeDetails) setupDetails()         {}
