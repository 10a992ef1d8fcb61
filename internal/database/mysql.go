package database

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crypto-setup-sentry/pkg/types"
)

// Manager 数据库管理器
type Manager struct {
	db     *gorm.DB
	config types.MySQLConfig
}

// SetupRecord 形态预警记录模型
type SetupRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Symbol          string    `gorm:"type:varchar(20);not null;index:idx_symbol_time" json:"symbol"`
	SetupType       string    `gorm:"type:varchar(32);not null;index:idx_symbol_time" json:"setup_type"`
	SetupTime       int64     `gorm:"not null;index:idx_setup_time" json:"setup_time"`
	EntryPrice      float64   `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	StopLoss        float64   `gorm:"type:decimal(20,8);not null" json:"stop_loss"`
	TakeProfit      float64   `gorm:"type:decimal(20,8);not null" json:"take_profit"`
	RiskReward      float64   `gorm:"type:decimal(5,2);not null" json:"risk_reward"`
	Confidence      float64   `gorm:"type:decimal(3,2);not null" json:"confidence"`
	Leverage        int       `gorm:"default:0" json:"leverage"`
	PositionSize    float64   `gorm:"type:decimal(20,8)" json:"position_size"`
	RiskAmount      float64   `gorm:"type:decimal(12,2)" json:"risk_amount"`
	MarketCondition string    `gorm:"type:varchar(16)" json:"market_condition"`
	Description     string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// SetupPerformance 按(交易对, 日期)汇总的形态统计模型
type SetupPerformance struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Symbol          string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_symbol_date" json:"symbol"`
	Date            time.Time `gorm:"type:date;not null;uniqueIndex:uk_symbol_date" json:"date"`
	TotalSetups     int       `gorm:"default:0" json:"total_setups"`
	BreakoutCount   int       `gorm:"default:0" json:"breakout_count"`
	HigherLowsCount int       `gorm:"default:0" json:"higher_lows_count"`
	PullbackCount   int       `gorm:"default:0" json:"pullback_count"`
	SqueezeCount    int       `gorm:"default:0" json:"squeeze_count"`
	AvgConfidence   *float64  `gorm:"type:decimal(3,2)" json:"avg_confidence"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ScanPerformance 扫描性能统计模型，按天汇总
type ScanPerformance struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uk_scan_date" json:"date"`
	TotalScans   int       `gorm:"default:0" json:"total_scans"`
	TotalSymbols int       `gorm:"default:0" json:"total_symbols"`
	TotalSetups  int       `gorm:"default:0" json:"total_setups"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewManager 创建数据库管理器
func NewManager(config types.MySQLConfig) (*Manager, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)

	// 配置GORM日志
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 生产环境使用Silent
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %v", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %v", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	manager := &Manager{
		db:     db,
		config: config,
	}

	// 自动迁移表结构
	if err := manager.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %v", err)
	}

	zap.L().Info("✅ MySQL数据库连接成功",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database))

	return manager, nil
}

// AutoMigrate 自动迁移表结构
func (m *Manager) AutoMigrate() error {
	return m.db.AutoMigrate(
		&SetupRecord{},
		&SetupPerformance{},
		&ScanPerformance{},
	)
}

// SaveSetup 保存形态预警记录
func (m *Manager) SaveSetup(setup *types.TradingSetup) error {
	record := &SetupRecord{
		Symbol:          setup.Symbol,
		SetupType:       string(setup.SetupType),
		SetupTime:       setup.Timestamp.Unix(),
		EntryPrice:      setup.EntryPrice,
		StopLoss:        setup.StopLoss,
		TakeProfit:      setup.TakeProfit,
		RiskReward:      setup.RiskReward,
		Confidence:      setup.Confidence,
		Leverage:        setup.Leverage,
		PositionSize:    setup.PositionSize,
		RiskAmount:      setup.RiskAmount,
		MarketCondition: string(setup.MarketCondition),
		Description:     setup.Description,
		CreatedAt:       time.Now(),
	}
	return m.db.Create(record).Error
}

// UpdateSetupPerformance 更新交易对当日的形态统计，平均置信度取运行均值
func (m *Manager) UpdateSetupPerformance(setup *types.TradingSetup) error {
	today := time.Now().Truncate(24 * time.Hour)

	var perf SetupPerformance
	result := m.db.Where("symbol = ? AND date = ?", setup.Symbol, today).First(&perf)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		confidence := setup.Confidence
		perf = SetupPerformance{
			Symbol:        setup.Symbol,
			Date:          today,
			TotalSetups:   1,
			AvgConfidence: &confidence,
		}
		bumpTypeCount(&perf, setup.SetupType)
		return m.db.Create(&perf).Error
	} else if result.Error != nil {
		return result.Error
	}

	updates := map[string]interface{}{
		"total_setups":                   perf.TotalSetups + 1,
		typeCountColumn(setup.SetupType): typeCount(&perf, setup.SetupType) + 1,
	}
	if perf.AvgConfidence != nil {
		newAvg := ((*perf.AvgConfidence)*float64(perf.TotalSetups) + setup.Confidence) / float64(perf.TotalSetups+1)
		updates["avg_confidence"] = newAvg
	} else {
		updates["avg_confidence"] = setup.Confidence
	}
	return m.db.Model(&perf).Where("id = ?", perf.ID).Updates(updates).Error
}

func bumpTypeCount(perf *SetupPerformance, t types.SetupType) {
	switch t {
	case types.SetupBreakout:
		perf.BreakoutCount++
	case types.SetupHigherLows:
		perf.HigherLowsCount++
	case types.SetupImpulsePullback:
		perf.PullbackCount++
	case types.SetupSqueezeBreakout:
		perf.SqueezeCount++
	}
}

func typeCountColumn(t types.SetupType) string {
	switch t {
	case types.SetupBreakout:
		return "breakout_count"
	case types.SetupHigherLows:
		return "higher_lows_count"
	case types.SetupImpulsePullback:
		return "pullback_count"
	default:
		return "squeeze_count"
	}
}

func typeCount(perf *SetupPerformance, t types.SetupType) int {
	switch t {
	case types.SetupBreakout:
		return perf.BreakoutCount
	case types.SetupHigherLows:
		return perf.HigherLowsCount
	case types.SetupImpulsePullback:
		return perf.PullbackCount
	default:
		return perf.SqueezeCount
	}
}

// RecordScanRun 累加当日扫描统计
func (m *Manager) RecordScanRun(symbols, setups int) error {
	today := time.Now().Truncate(24 * time.Hour)

	var perf ScanPerformance
	result := m.db.Where("date = ?", today).First(&perf)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		perf = ScanPerformance{
			Date:         today,
			TotalScans:   1,
			TotalSymbols: symbols,
			TotalSetups:  setups,
		}
		return m.db.Create(&perf).Error
	} else if result.Error != nil {
		return result.Error
	}

	updates := map[string]interface{}{
		"total_scans":   perf.TotalScans + 1,
		"total_symbols": perf.TotalSymbols + symbols,
		"total_setups":  perf.TotalSetups + setups,
	}
	return m.db.Model(&perf).Where("id = ?", perf.ID).Updates(updates).Error
}

// RecentSetups 获取最近的形态预警记录
func (m *Manager) RecentSetups(symbol string, limit int) ([]SetupRecord, error) {
	var records []SetupRecord
	query := m.db.Order("setup_time DESC").Limit(limit)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	err := query.Find(&records).Error
	return records, err
}

// Close 关闭数据库连接
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库连接健康状态
func (m *Manager) Health() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
