package types

import "time"

// Candle K线数据结构
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series 单个交易对的一次扫描视图：K线序列 + 对齐的衍生指标列。
// 指标列在数据量不足预热长度时为空，检测器必须把空列当作"数据不足"处理。
type Series struct {
	Symbol  string    `json:"symbol"`
	Candles []*Candle `json:"candles"`

	// 衍生指标列，与Candles逐位对齐；经过TrimWarmup后不含未定义值
	SMAFast     []float64 `json:"sma_fast,omitempty"`
	SMASlow     []float64 `json:"sma_slow,omitempty"`
	EMA         []float64 `json:"ema,omitempty"`
	RSI         []float64 `json:"rsi,omitempty"`
	VolumeSMA   []float64 `json:"volume_sma,omitempty"`
	VolumeRatio []float64 `json:"volume_ratio,omitempty"`
	ATR         []float64 `json:"atr,omitempty"`
}

// Len K线数量
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// HasIndicators 指标列是否齐备且与K线对齐
func (s *Series) HasIndicators() bool {
	n := s.Len()
	if n == 0 {
		return false
	}
	return len(s.SMAFast) == n &&
		len(s.SMASlow) == n &&
		len(s.EMA) == n &&
		len(s.RSI) == n &&
		len(s.VolumeSMA) == n &&
		len(s.VolumeRatio) == n &&
		len(s.ATR) == n
}

// LastClose 最新收盘价
func (s *Series) LastClose() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Candles[s.Len()-1].Close
}

// MarketData 单交易对的市场快照，在一个扫描周期内不可变
type MarketData struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	Volume24h      float64 `json:"volume_24h"`
	PriceChange24h float64 `json:"price_change_24h"`
	MarketCapRank  int     `json:"market_cap_rank"`
	BTCDominance   float64 `json:"btc_dominance"`
}

// MarketOverview 市场总览
type MarketOverview struct {
	BTCDominance float64         `json:"btc_dominance"`
	MarketTrend  MarketCondition `json:"market_trend"`
	AsOf         time.Time       `json:"as_of"`
}

// MarketCondition 市场状态标签
type MarketCondition string

const (
	ConditionBullish  MarketCondition = "bullish"
	ConditionBearish  MarketCondition = "bearish"
	ConditionSideways MarketCondition = "sideways"
	// ConditionNeutral 数据不足（<20根K线）或总览斜率为零时的默认值
	ConditionNeutral MarketCondition = "neutral"
)
