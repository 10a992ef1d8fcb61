package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"crypto-setup-sentry/pkg/types"
)

// ScanState 扫描周期之间共享的可变状态：冷却表、当日去重集合、行情快照缓存。
// 由调度方持有并传入各检查点，进程内不使用任何全局单例。
type ScanState struct {
	mu        sync.RWMutex
	cooldowns map[string]time.Time    // 交易对 -> 最近一次触发时间，进程生命周期内只增不删
	seen      map[string]struct{}     // 去重键集合，只增不删
	tickers   map[string]*types.MarketData

	cooldown    time.Duration
	redisClient *redis.Client
	useRedis    bool
}

// NewScanState 创建扫描状态，Redis可选：连接失败时退化为纯内存模式
func NewScanState(redisConfig types.RedisConfig, cooldown time.Duration) *ScanState {
	st := &ScanState{
		cooldowns: make(map[string]time.Time),
		seen:      make(map[string]struct{}),
		tickers:   make(map[string]*types.MarketData),
		cooldown:  cooldown,
	}

	if redisConfig.URL != "" {
		st.redisClient = redis.NewClient(&redis.Options{
			Addr:     redisConfig.URL,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := st.redisClient.Ping(ctx).Result(); err != nil {
			zap.L().Warn("⚠️ Redis连接失败，使用纯内存模式", zap.Error(err))
			st.useRedis = false
		} else {
			zap.L().Info("✅ Redis连接成功")
			st.useRedis = true
		}
	} else {
		zap.L().Info("🔧 未配置Redis，使用纯内存模式")
	}

	return st
}

// InCooldown 交易对是否处于冷却窗口内；窗口内的交易对直接跳过，不进入检测
func (st *ScanState) InCooldown(symbol string, now time.Time) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()

	last, ok := st.cooldowns[symbol]
	if !ok {
		return false
	}
	return now.Before(last.Add(st.cooldown))
}

// RecordAlert 记录触发时间，任何检测器触发都会覆盖该交易对的冷却起点
func (st *ScanState) RecordAlert(symbol string, now time.Time) {
	st.mu.Lock()
	st.cooldowns[symbol] = now
	st.mu.Unlock()

	if st.useRedis {
		go st.backupCooldown(symbol, now)
	}
}

// backupCooldown 异步备份冷却记录到Redis，过期时间即冷却窗口
func (st *ScanState) backupCooldown(symbol string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf("sentry:cooldown:%s", symbol)
	if err := st.redisClient.Set(ctx, key, at.Unix(), st.cooldown).Err(); err != nil {
		zap.L().Debug("Redis备份冷却记录失败", zap.String("symbol", symbol), zap.Error(err))
	}
}

// SeenSetup 去重键是否已出现过
func (st *ScanState) SeenSetup(key string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.seen[key]
	return ok
}

// RecordSetup 登记去重键
func (st *ScanState) RecordSetup(key string) {
	st.mu.Lock()
	st.seen[key] = struct{}{}
	st.mu.Unlock()

	if st.useRedis {
		go st.backupSetupKey(key)
	}
}

func (st *ScanState) backupSetupKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	redisKey := fmt.Sprintf("sentry:dedup:%s", key)
	if err := st.redisClient.Set(ctx, redisKey, 1, 48*time.Hour).Err(); err != nil {
		zap.L().Debug("Redis备份去重键失败", zap.String("key", key), zap.Error(err))
	}
}

// StoreTicker 缓存行情快照（WebSocket推送写入）
func (st *ScanState) StoreTicker(md *types.MarketData) {
	if md == nil {
		return
	}
	st.mu.Lock()
	st.tickers[md.Symbol] = md
	st.mu.Unlock()
}

// Ticker 读取缓存的行情快照
func (st *ScanState) Ticker(symbol string) *types.MarketData {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.tickers[symbol]
}

// Stats 状态统计信息
func (st *ScanState) Stats() map[string]interface{} {
	st.mu.RLock()
	defer st.mu.RUnlock()

	stats := map[string]interface{}{
		"redis_enabled": st.useRedis,
		"cooldowns":     len(st.cooldowns),
		"dedup_keys":    len(st.seen),
		"cached_tickers": len(st.tickers),
	}
	return stats
}
