package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-setup-sentry/pkg/types"
)

// TelegramNotifier Telegram通知器
type TelegramNotifier struct {
	botToken   string
	chatID     string
	enabled    bool
	httpClient *http.Client
}

type telegramRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier 创建Telegram通知器，未配置token时降级为控制台输出
func NewTelegramNotifier(cfg types.TelegramConfig) Interface {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		fmt.Println("🔧 未配置Telegram Bot Token，使用控制台输出模式")
		return NewConsoleNotifier()
	}

	fmt.Println("✅ 已配置Telegram通知服务")
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  true,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (tn *TelegramNotifier) SendSetup(setup *types.TradingSetup) error {
	if !tn.enabled {
		console := NewConsoleNotifier()
		return console.SendSetup(setup)
	}

	content := tn.buildHTMLContent(setup)
	if err := tn.sendMessage(content); err != nil {
		fmt.Printf("❌ Telegram发送失败: %v，降级为控制台输出\n", err)
		console := NewConsoleNotifier()
		return console.SendSetup(setup)
	}

	fmt.Printf("✅ Telegram通知已发送: %s [%s]\n", setup.Symbol, setup.SetupType)
	return nil
}

func (tn *TelegramNotifier) SendBatch(setups []*types.TradingSetup) error {
	if len(setups) == 0 {
		return nil
	}
	for _, setup := range setups {
		if err := tn.SendSetup(setup); err != nil {
			return err
		}
	}
	return nil
}

// buildHTMLContent 构建HTML格式的形态预警消息
func (tn *TelegramNotifier) buildHTMLContent(setup *types.TradingSetup) string {
	emoji := setupEmoji(setup.SetupType)
	tradingURL := buildTradingURL(setup.Symbol)

	content := fmt.Sprintf(`%s <b>交易形态预警 - %s</b>

<b>交易对:</b> <a href="%s">%s</a>
<b>入场价:</b> $%.6f
<b>止损价:</b> $%.6f
<b>止盈价:</b> $%.6f
<b>盈亏比:</b> %.1f:1
<b>置信度:</b> %.0f%%
<b>建议杠杆:</b> %dx
<b>仓位数量:</b> %.4f
<b>风险金额:</b> $%.2f
<b>市场状态:</b> %s
`,
		emoji, setup.SetupType,
		tradingURL, setup.Symbol,
		setup.EntryPrice, setup.StopLoss, setup.TakeProfit,
		setup.RiskReward, setup.Confidence*100,
		setup.Leverage, setup.PositionSize, setup.RiskAmount,
		setup.MarketCondition)

	content += tn.buildDetailSection(setup.Details)

	content += fmt.Sprintf(`
<i>%s</i>
<i>预警时间: %s</i>

💡 请结合自身风险偏好决策，预警不构成投资建议`,
		setup.Description,
		setup.Timestamp.Format("2006-01-02 15:04:05"))

	return content
}

// buildDetailSection 按形态类型展开细节字段
func (tn *TelegramNotifier) buildDetailSection(details types.SetupDetails) string {
	switch d := details.(type) {
	case types.BreakoutDetails:
		return fmt.Sprintf(`
<b>阻力位:</b> $%.6f
<b>量比:</b> %.2f
<b>RSI:</b> %.1f
<b>距阻力位:</b> %.2f%%
`, d.ResistanceLevel, d.VolumeRatio, d.RSI, d.DistanceToResistance*100)
	case types.HigherLowsDetails:
		return fmt.Sprintf(`
<b>抬高低点数:</b> %d
<b>阻力位:</b> $%.6f
<b>最近低点:</b> $%.6f
<b>RSI:</b> %.1f
`, d.LowsCount, d.ResistanceLevel, d.LastLow, d.RSI)
	case types.ImpulsePullbackDetails:
		return fmt.Sprintf(`
<b>脉冲涨幅:</b> %.1f%%
<b>回调幅度:</b> %.1f%%
<b>脉冲K线数:</b> %d
<b>脉冲高点:</b> $%.6f
`, d.ImpulsePct, d.PullbackPct, d.ImpulseBars, d.RecentHigh)
	case types.SqueezeDetails:
		return fmt.Sprintf(`
<b>关键价位:</b> $%.6f
<b>区间振幅:</b> %.2f%%
<b>ATR压缩比:</b> %.2f
<b>距关键位:</b> %.2f%%
`, d.Level, d.RangePct, d.ATRRatio, d.DistanceToLevel*100)
	default:
		return ""
	}
}

// sendMessage 调用Telegram Bot API发送消息
func (tn *TelegramNotifier) sendMessage(content string) error {
	reqData := telegramRequest{
		ChatID:    tn.chatID,
		Text:      content,
		ParseMode: "HTML",
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("序列化请求数据失败: %v", err)
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", tn.botToken)
	resp, err := tn.httpClient.Post(apiURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	var tgResp telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&tgResp); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if !tgResp.OK {
		return fmt.Errorf("Telegram API错误: %s", tgResp.Description)
	}
	return nil
}
