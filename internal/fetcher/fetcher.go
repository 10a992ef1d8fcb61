package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"crypto-setup-sentry/internal/indicators"
	"crypto-setup-sentry/internal/market"
	"crypto-setup-sentry/pkg/types"
)

const (
	okxTickersURL = "https://www.okx.com/api/v5/market/tickers?instType=SPOT"
	okxCandlesURL = "https://www.okx.com/api/v5/market/candles"
	coingeckoURL  = "https://api.coingecko.com/api/v3/global"
	dominanceTTL  = 10 * time.Minute
	maxFetchRetry = 3
	// 总览趋势取最近7根BTC日线
	overviewDays = 7
)

// DataFetcher 数据获取器：OKX行情 + CoinGecko宏观数据，支持HTTP代理
type DataFetcher struct {
	cfg        *types.Config
	calc       *indicators.Calculator
	httpClient *http.Client

	mu          sync.Mutex
	dominance   float64
	dominanceAt time.Time
}

// NewDataFetcher 创建数据获取器
func NewDataFetcher(cfg *types.Config, calc *indicators.Calculator) *DataFetcher {
	timeout := cfg.Network.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
		},
	}

	// 如果配置了代理，则使用代理
	if cfg.Network.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Network.Proxy)
		if err == nil {
			httpClient.Transport.(*http.Transport).Proxy = http.ProxyURL(proxyURL)
			zap.L().Info("✅ 已配置HTTP代理", zap.String("proxy", cfg.Network.Proxy))
		} else {
			zap.L().Warn("⚠️ 代理地址格式错误", zap.Error(err))
		}
	}

	zap.L().Info("✅ 初始化OKX数据获取器", zap.Duration("timeout", timeout))

	return &DataFetcher{
		cfg:        cfg,
		calc:       calc,
		httpClient: httpClient,
	}
}

// okxTicker OKX ticker响应结构
type okxTicker struct {
	InstId    string `json:"instId"`
	Last      string `json:"last"`
	Open24h   string `json:"open24h"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	Vol24h    string `json:"vol24h"`
	VolCcy24h string `json:"volCcy24h"`
	Ts        string `json:"ts"`
}

// TopSymbols 拉取全市场USDT交易对，按过滤条件和成交额筛选出候选列表
func (f *DataFetcher) TopSymbols(ctx context.Context, limit int) ([]*types.MarketData, error) {
	tickers, err := f.getTickers(ctx)
	if err != nil {
		return nil, err
	}

	var markets []*types.MarketData
	for _, t := range tickers {
		md := parseTicker(t)
		if md == nil {
			continue
		}
		if !f.passFilters(md) {
			continue
		}
		markets = append(markets, md)
	}

	// 优先列表靠前，其余按24h成交额降序
	priority := make(map[string]int, len(f.cfg.Exchange.PrioritySymbols))
	for i, sym := range f.cfg.Exchange.PrioritySymbols {
		priority[sym] = i
	}
	sort.SliceStable(markets, func(i, j int) bool {
		pi, iok := priority[markets[i].Symbol]
		pj, jok := priority[markets[j].Symbol]
		if iok != jok {
			return iok
		}
		if iok && jok {
			return pi < pj
		}
		return markets[i].Volume24h > markets[j].Volume24h
	})

	if limit > 0 && len(markets) > limit {
		markets = markets[:limit]
	}
	for i, md := range markets {
		md.MarketCapRank = i + 1
	}

	zap.L().Info("📊 候选交易对筛选完成",
		zap.Int("total", len(tickers)),
		zap.Int("candidates", len(markets)))
	return markets, nil
}

func parseTicker(t okxTicker) *types.MarketData {
	price, err := strconv.ParseFloat(t.Last, 64)
	if err != nil || price <= 0 {
		return nil
	}
	open, err := strconv.ParseFloat(t.Open24h, 64)
	if err != nil || open <= 0 {
		return nil
	}
	volUSD, err := strconv.ParseFloat(t.VolCcy24h, 64)
	if err != nil {
		return nil
	}
	return &types.MarketData{
		Symbol:         t.InstId,
		Price:          price,
		Volume24h:      volUSD,
		PriceChange24h: (price - open) / open * 100,
	}
}

func (f *DataFetcher) passFilters(md *types.MarketData) bool {
	filters := f.cfg.Filters
	if md.Volume24h < filters.MinVolumeUSD {
		return false
	}
	if md.PriceChange24h < filters.MinPriceChange24h || md.PriceChange24h > filters.MaxPriceChange24h {
		return false
	}
	return true
}

// Candles 拉取单交易对K线并计算全部指标，返回按时间升序的序列
func (f *DataFetcher) Candles(ctx context.Context, symbol string) (*types.Series, error) {
	apiURL := fmt.Sprintf("%s?instId=%s&bar=%s&limit=%d",
		okxCandlesURL, symbol, f.cfg.Exchange.Timeframe, f.cfg.Exchange.CandleLimit)

	var rows [][]string
	err := f.getJSON(ctx, apiURL, &rows)
	if err != nil {
		return nil, err
	}

	series := &types.Series{Symbol: symbol}
	// OKX返回倒序（最新在前），反向遍历得到时间升序
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		candle, err := parseCandle(row)
		if err != nil {
			zap.L().Warn("⚠️ K线解析失败，跳过该行",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		series.Candles = append(series.Candles, candle)
	}

	if series.Len() == 0 {
		return nil, fmt.Errorf("交易对 %s 无有效K线数据", symbol)
	}

	f.calc.Augment(series)
	return series, nil
}

func parseCandle(row []string) (*types.Candle, error) {
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("时间戳解析失败: %w", err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("价格字段解析失败: %w", err)
		}
		vals[i] = v
	}
	return &types.Candle{
		Timestamp: time.UnixMilli(ts),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// Overview 市场总览：BTC主导率 + BTC日线趋势。
// 日线拉取失败时趋势记为neutral，主导率失败则整体报错
func (f *DataFetcher) Overview(ctx context.Context) (*types.MarketOverview, error) {
	dominance, err := f.BTCDominance(ctx)
	if err != nil {
		return nil, err
	}

	trend := types.ConditionNeutral
	closes, err := f.btcDailyCloses(ctx)
	if err != nil {
		zap.L().Warn("⚠️ 获取BTC日线失败，总览趋势记为neutral", zap.Error(err))
	} else {
		trend = market.OverviewTrend(closes)
	}

	return &types.MarketOverview{
		BTCDominance: dominance,
		MarketTrend:  trend,
		AsOf:         time.Now(),
	}, nil
}

func (f *DataFetcher) btcDailyCloses(ctx context.Context) ([]float64, error) {
	apiURL := fmt.Sprintf("%s?instId=BTC-USDT&bar=1D&limit=%d", okxCandlesURL, overviewDays)

	var rows [][]string
	if err := f.getJSON(ctx, apiURL, &rows); err != nil {
		return nil, err
	}

	closes := make([]float64, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 5 {
			continue
		}
		c, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		closes = append(closes, c)
	}
	return closes, nil
}

// BTCDominance 获取BTC市场占比，结果缓存10分钟
func (f *DataFetcher) BTCDominance(ctx context.Context) (float64, error) {
	f.mu.Lock()
	if time.Since(f.dominanceAt) < dominanceTTL && f.dominance > 0 {
		cached := f.dominance
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	var resp struct {
		Data struct {
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := f.fetchJSON(ctx, coingeckoURL, &resp); err != nil {
		return 0, err
	}

	dominance, ok := resp.Data.MarketCapPercentage["btc"]
	if !ok || dominance <= 0 {
		return 0, fmt.Errorf("CoinGecko响应缺少BTC占比数据")
	}

	f.mu.Lock()
	f.dominance = dominance
	f.dominanceAt = time.Now()
	f.mu.Unlock()

	zap.L().Debug("🌐 BTC主导率已更新", zap.Float64("dominance", dominance))
	return dominance, nil
}

// getTickers 带重试地获取全市场ticker数据
func (f *DataFetcher) getTickers(ctx context.Context) ([]okxTicker, error) {
	var tickers []okxTicker
	if err := f.getJSON(ctx, okxTickersURL, &tickers); err != nil {
		return nil, err
	}

	usdtTickers := make([]okxTicker, 0)
	for _, t := range tickers {
		if strings.HasSuffix(t.InstId, "-USDT") {
			usdtTickers = append(usdtTickers, t)
		}
	}
	return usdtTickers, nil
}

// getJSON 请求OKX接口并解包data字段，最多重试3次
func (f *DataFetcher) getJSON(ctx context.Context, apiURL string, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxFetchRetry; attempt++ {
		if attempt > 1 {
			zap.L().Info("🔄 重试获取数据", zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, err := f.doGet(ctx, apiURL)
		if err != nil {
			lastErr = fmt.Errorf("HTTP请求失败(第%d次尝试): %w", attempt, err)
			continue
		}

		var apiResp struct {
			Code string          `json:"code"`
			Msg  string          `json:"msg"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &apiResp); err != nil {
			lastErr = fmt.Errorf("解析API响应失败(第%d次尝试): %w", attempt, err)
			continue
		}
		if apiResp.Code != "0" {
			lastErr = fmt.Errorf("API返回错误(第%d次尝试): %s - %s", attempt, apiResp.Code, apiResp.Msg)
			continue
		}
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			lastErr = fmt.Errorf("解析数据字段失败(第%d次尝试): %w", attempt, err)
			continue
		}
		return nil
	}
	return lastErr
}

// fetchJSON 请求非OKX接口并直接解析整个响应体，最多重试3次
func (f *DataFetcher) fetchJSON(ctx context.Context, apiURL string, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxFetchRetry; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, err := f.doGet(ctx, apiURL)
		if err != nil {
			lastErr = fmt.Errorf("HTTP请求失败(第%d次尝试): %w", attempt, err)
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			lastErr = fmt.Errorf("解析响应失败(第%d次尝试): %w", attempt, err)
			continue
		}
		return nil
	}
	return lastErr
}

func (f *DataFetcher) doGet(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP状态码错误: %d", resp.StatusCode)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body.Bytes(), nil
}
