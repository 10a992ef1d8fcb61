package types

import "time"

// Config 主配置结构
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Network    NetworkConfig    `mapstructure:"network"`
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Filters    FilterConfig     `mapstructure:"filters"`
	Indicators IndicatorConfig  `mapstructure:"indicators"`
	Patterns   PatternConfig    `mapstructure:"patterns"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Alerts     AlertSinkConfig  `mapstructure:"alerts"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出路径名
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// RedisConfig Redis配置
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelegramConfig Telegram通知配置
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
}

// MySQLConfig MySQL配置
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// NetworkConfig 网络配置
type NetworkConfig struct {
	Proxy   string        `mapstructure:"proxy"`   // HTTP代理地址，如 http://127.0.0.1:7890
	Timeout time.Duration `mapstructure:"timeout"` // 网络超时时间
}

// ExchangeConfig 交易所数据配置
type ExchangeConfig struct {
	Timeframe       string   `mapstructure:"timeframe"`        // 主分析周期，如 1H
	CandleLimit     int      `mapstructure:"candle_limit"`     // 每次拉取的K线数量
	SymbolLimit     int      `mapstructure:"symbol_limit"`     // 每轮扫描的交易对上限
	PrioritySymbols []string `mapstructure:"priority_symbols"` // 优先扫描列表，为空时按成交量筛选
	EnableStream    bool     `mapstructure:"enable_stream"`    // 是否启用WebSocket行情缓存
}

// ScannerConfig 扫描调度配置
type ScannerConfig struct {
	IntervalMinutes  int           `mapstructure:"interval_minutes"`  // 扫描间隔，单位：分钟
	SymbolPause      time.Duration `mapstructure:"symbol_pause"`      // 相邻交易对之间的限速停顿
	RecoverySleep    time.Duration `mapstructure:"recovery_sleep"`    // 扫描异常后的恢复等待
	CooldownMinutes  int           `mapstructure:"cooldown_minutes"`  // 单交易对预警冷却时间
	MaxAlertsPerHour int           `mapstructure:"max_alerts_per_hour"`
}

// FilterConfig 市场过滤配置
type FilterConfig struct {
	MinVolumeUSD          float64 `mapstructure:"min_volume_usd"`     // 最小24h成交额
	MinPriceChange24h     float64 `mapstructure:"min_price_change_24h"`
	MaxPriceChange24h     float64 `mapstructure:"max_price_change_24h"`
	VolumeMultiplier      float64 `mapstructure:"volume_multiplier"` // 量比下限
	EnableDominanceFilter bool    `mapstructure:"enable_dominance_filter"`
	DominanceThreshold    float64 `mapstructure:"dominance_threshold"` // BTC最小市场占比
}

// IndicatorConfig 技术指标配置
type IndicatorConfig struct {
	RSIPeriod       int `mapstructure:"rsi_period"`
	RSIOversold     int `mapstructure:"rsi_oversold"`
	RSIOverbought   int `mapstructure:"rsi_overbought"`
	SMAFast         int `mapstructure:"sma_fast"`
	SMASlow         int `mapstructure:"sma_slow"`
	EMAPeriod       int `mapstructure:"ema_period"`
	VolumeSMAPeriod int `mapstructure:"volume_sma_period"`
	ATRPeriod       int `mapstructure:"atr_period"`
}

// PatternConfig 形态检测配置
type PatternConfig struct {
	BreakoutConfirmationPct float64 `mapstructure:"breakout_confirmation_pct"` // 突破确认幅度，单位：%
	LevelWindow             int     `mapstructure:"level_window"`              // 支撑/阻力搜索窗口
	HigherLowsMinCount      int     `mapstructure:"higher_lows_min_count"`
	StopLossPct             float64 `mapstructure:"stop_loss_pct"` // 最大止损幅度，单位：%
	MinRiskReward           float64 `mapstructure:"min_risk_reward"`
}

// RiskConfig 仓位风险配置
type RiskConfig struct {
	AccountBalance float64 `mapstructure:"account_balance"` // 账户资金，单位：USD
	RiskPct        float64 `mapstructure:"risk_pct"`        // 单笔风险占比，单位：%
	MinLeverage    int     `mapstructure:"min_leverage"`
	MaxLeverage    int     `mapstructure:"max_leverage"`
}

// AlertSinkConfig 预警输出配置
type AlertSinkConfig struct {
	EnableTelegram bool   `mapstructure:"enable_telegram"`
	EnableConsole  bool   `mapstructure:"enable_console"`
	EnableFile     bool   `mapstructure:"enable_file"`
	AlertsFile     string `mapstructure:"alerts_file"` // 追加写入的预警记录文件
}
