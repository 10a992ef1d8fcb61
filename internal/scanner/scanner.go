package scanner

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"crypto-setup-sentry/internal/database"
	"crypto-setup-sentry/internal/detector"
	"crypto-setup-sentry/internal/notifier"
	"crypto-setup-sentry/internal/storage"
	"crypto-setup-sentry/pkg/types"
)

// 总览获取失败时使用的中性主导率，不触发主导率过滤
const neutralBTCDominance = 50.0

// MarketDataSource 市场数据源：提供扫描所需的币种列表、K线和宏观数据
type MarketDataSource interface {
	TopSymbols(ctx context.Context, limit int) ([]*types.MarketData, error)
	Candles(ctx context.Context, symbol string) (*types.Series, error)
	Overview(ctx context.Context) (*types.MarketOverview, error)
}

// Scanner 扫描编排器：串行遍历币种，检出形态后去重、排序、推送
type Scanner struct {
	cfg      *types.Config
	source   MarketDataSource
	engine   *detector.Engine
	state    *storage.ScanState
	notifier *notifier.Manager
	db       *database.Manager
}

// New 创建扫描编排器，db可以为nil（未启用持久化）
func New(cfg *types.Config, source MarketDataSource, engine *detector.Engine,
	state *storage.ScanState, nm *notifier.Manager, db *database.Manager) *Scanner {
	return &Scanner{
		cfg:      cfg,
		source:   source,
		engine:   engine,
		state:    state,
		notifier: nm,
		db:       db,
	}
}

// Scan 执行一轮完整扫描，单币种失败不影响其他币种
func (s *Scanner) Scan(ctx context.Context) ([]*types.TradingSetup, error) {
	started := time.Now()

	markets, err := s.source.TopSymbols(ctx, s.cfg.Exchange.SymbolLimit)
	if err != nil {
		// 行情接口不可用时用WebSocket缓存的优先交易对快照兜底
		markets = s.cachedMarkets()
		if len(markets) == 0 {
			return nil, err
		}
		zap.L().Warn("⚠️ 行情接口失败，使用WebSocket缓存快照",
			zap.Int("symbols", len(markets)), zap.Error(err))
	}

	overview, err := s.source.Overview(ctx)
	if err != nil {
		// 宏观数据失败时取中性默认值：主导率50让过滤默认放行，扫描继续
		zap.L().Warn("⚠️ 获取市场总览失败，使用中性默认值", zap.Error(err))
		overview = &types.MarketOverview{
			BTCDominance: neutralBTCDominance,
			MarketTrend:  types.ConditionNeutral,
		}
	} else {
		zap.L().Info("🌐 市场总览",
			zap.Float64("btc_dominance", overview.BTCDominance),
			zap.String("trend", string(overview.MarketTrend)))
	}

	var setups []*types.TradingSetup
	scanned := 0

	for _, md := range markets {
		select {
		case <-ctx.Done():
			return setups, ctx.Err()
		default:
		}

		if s.state.InCooldown(md.Symbol, time.Now()) {
			zap.L().Debug("⏳ 冷却期内跳过", zap.String("symbol", md.Symbol))
			continue
		}

		md.BTCDominance = overview.BTCDominance

		series, err := s.source.Candles(ctx, md.Symbol)
		if err != nil {
			zap.L().Warn("⚠️ 获取K线失败，跳过该币种",
				zap.String("symbol", md.Symbol), zap.Error(err))
			continue
		}
		scanned++

		for _, setup := range s.engine.DetectAll(series, md) {
			key := setup.DedupKey()
			if s.state.SeenSetup(key) {
				zap.L().Debug("🔁 当日已推送过，去重",
					zap.String("symbol", setup.Symbol),
					zap.String("type", string(setup.SetupType)))
				continue
			}
			s.state.RecordSetup(key)
			setups = append(setups, setup)
		}

		if s.cfg.Scanner.SymbolPause > 0 {
			time.Sleep(s.cfg.Scanner.SymbolPause)
		}
	}

	// 置信度降序，同分保持检出顺序
	sort.SliceStable(setups, func(i, j int) bool {
		return setups[i].Confidence > setups[j].Confidence
	})

	if len(setups) > 0 {
		s.notifier.SendBatch(setups)
		s.persist(setups)
	}

	zap.L().Info("✅ 本轮扫描完成",
		zap.Int("symbols", len(markets)),
		zap.Int("scanned", scanned),
		zap.Int("setups", len(setups)),
		zap.Duration("elapsed", time.Since(started)))

	if s.db != nil {
		if err := s.db.RecordScanRun(scanned, len(setups)); err != nil {
			zap.L().Warn("⚠️ 扫描统计写入失败", zap.Error(err))
		}
	}

	return setups, nil
}

func (s *Scanner) cachedMarkets() []*types.MarketData {
	var markets []*types.MarketData
	for _, sym := range s.cfg.Exchange.PrioritySymbols {
		if md := s.state.Ticker(sym); md != nil {
			markets = append(markets, md)
		}
	}
	return markets
}

func (s *Scanner) persist(setups []*types.TradingSetup) {
	if s.db == nil {
		return
	}
	for _, setup := range setups {
		if err := s.db.SaveSetup(setup); err != nil {
			zap.L().Warn("⚠️ 形态落库失败",
				zap.String("symbol", setup.Symbol), zap.Error(err))
			continue
		}
		if err := s.db.UpdateSetupPerformance(setup); err != nil {
			zap.L().Warn("⚠️ 形态统计更新失败",
				zap.String("symbol", setup.Symbol), zap.Error(err))
		}
	}
}
