package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"crypto-setup-sentry/pkg/types"
)

// Load 加载配置
func Load() (*types.Config, error) {
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置默认值
	setDefaults()

	// 读取环境变量
	viper.AutomaticEnv()

	// 优先尝试读取本地配置文件
	viper.SetConfigName("config.local")
	if err := viper.ReadInConfig(); err != nil {
		// 如果本地配置文件不存在，尝试读取默认配置文件
		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, err
			}
		}
	}

	var config types.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate 检查关键参数的合法范围
func validate(cfg *types.Config) error {
	if cfg.Risk.RiskPct < 1 || cfg.Risk.RiskPct > 20 {
		return fmt.Errorf("risk.risk_pct 必须在1到20之间: %.1f", cfg.Risk.RiskPct)
	}
	if cfg.Patterns.MinRiskReward < 1 {
		return fmt.Errorf("patterns.min_risk_reward 必须大于等于1: %.1f", cfg.Patterns.MinRiskReward)
	}
	if cfg.Risk.MinLeverage > cfg.Risk.MaxLeverage {
		return fmt.Errorf("risk.min_leverage 不能大于 risk.max_leverage")
	}
	if cfg.Scanner.IntervalMinutes <= 0 {
		return fmt.Errorf("scanner.interval_minutes 必须为正数: %d", cfg.Scanner.IntervalMinutes)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file_path", "logs")
	viper.SetDefault("log.max_size", 200)
	viper.SetDefault("log.max_age", 30)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.compress", false)

	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	viper.SetDefault("database.mysql.host", "")
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.username", "root")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "setup_sentry")
	viper.SetDefault("database.mysql.max_idle_conns", 10)
	viper.SetDefault("database.mysql.max_open_conns", 100)

	viper.SetDefault("network.proxy", "")
	viper.SetDefault("network.timeout", 30*time.Second)

	viper.SetDefault("exchange.timeframe", "1H")
	viper.SetDefault("exchange.candle_limit", 100)
	viper.SetDefault("exchange.symbol_limit", 50)
	viper.SetDefault("exchange.priority_symbols", []string{})
	viper.SetDefault("exchange.enable_stream", false)

	viper.SetDefault("scanner.interval_minutes", 30)
	viper.SetDefault("scanner.symbol_pause", 100*time.Millisecond)
	viper.SetDefault("scanner.recovery_sleep", time.Minute)
	viper.SetDefault("scanner.cooldown_minutes", 60)
	viper.SetDefault("scanner.max_alerts_per_hour", 5)

	viper.SetDefault("filters.min_volume_usd", 1000000.0)
	viper.SetDefault("filters.min_price_change_24h", -50.0)
	viper.SetDefault("filters.max_price_change_24h", 100.0)
	// 默认0.1时量比过滤几乎恒通过，需要过滤效果时调高该阈值
	viper.SetDefault("filters.volume_multiplier", 0.1)
	viper.SetDefault("filters.enable_dominance_filter", true)
	viper.SetDefault("filters.dominance_threshold", 45.0)

	viper.SetDefault("indicators.rsi_period", 14)
	viper.SetDefault("indicators.rsi_oversold", 30)
	viper.SetDefault("indicators.rsi_overbought", 70)
	viper.SetDefault("indicators.sma_fast", 20)
	viper.SetDefault("indicators.sma_slow", 50)
	viper.SetDefault("indicators.ema_period", 21)
	viper.SetDefault("indicators.volume_sma_period", 20)
	viper.SetDefault("indicators.atr_period", 14)

	viper.SetDefault("patterns.breakout_confirmation_pct", 0.5)
	viper.SetDefault("patterns.level_window", 20)
	viper.SetDefault("patterns.higher_lows_min_count", 3)
	viper.SetDefault("patterns.stop_loss_pct", 2.0)
	viper.SetDefault("patterns.min_risk_reward", 3.0)

	viper.SetDefault("risk.account_balance", 220.0)
	viper.SetDefault("risk.risk_pct", 5.0)
	viper.SetDefault("risk.min_leverage", 10)
	viper.SetDefault("risk.max_leverage", 20)

	viper.SetDefault("alerts.enable_telegram", true)
	viper.SetDefault("alerts.enable_console", true)
	viper.SetDefault("alerts.enable_file", true)
	viper.SetDefault("alerts.alerts_file", "alerts.jsonl")
}
