package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"crypto-setup-sentry/pkg/types"
)

// Interface 通知接口
type Interface interface {
	SendSetup(setup *types.TradingSetup) error
	SendBatch(setups []*types.TradingSetup) error
}

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	// 使用utf8.RuneCountInString计算实际显示字符数，而不是字节数
	runeCount := utf8.RuneCountInString(content)
	padding := totalWidth - runeCount - 4 // 4是边框字符数
	if padding < 0 {
		padding = 0
	}
	return padding
}

// buildTradingURL 根据交易对生成OKX现货交易链接
func buildTradingURL(symbol string) string {
	return fmt.Sprintf("https://www.okx.com/trade-spot/%s", strings.ToLower(symbol))
}

// setupEmoji 形态类型对应的图标
func setupEmoji(t types.SetupType) string {
	switch t {
	case types.SetupBreakout:
		return "🚀"
	case types.SetupHigherLows:
		return "📶"
	case types.SetupImpulsePullback:
		return "🌊"
	case types.SetupSqueezeBreakout:
		return "🎯"
	default:
		return "📊"
	}
}

// ConsoleNotifier 控制台通知器
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (cn *ConsoleNotifier) SendSetup(setup *types.TradingSetup) error {
	cn.printSetup(setup)
	return nil
}

func (cn *ConsoleNotifier) SendBatch(setups []*types.TradingSetup) error {
	if len(setups) == 0 {
		return nil
	}
	if len(setups) == 1 {
		return cn.SendSetup(setups[0])
	}
	cn.printBatch(setups)
	return nil
}

func (cn *ConsoleNotifier) printSetup(setup *types.TradingSetup) {
	border := "╔" + strings.Repeat("═", 60) + "╗"
	bottomBorder := "╚" + strings.Repeat("═", 60) + "╝"

	emoji := setupEmoji(setup.SetupType)

	fmt.Println()
	fmt.Println(border)
	title := fmt.Sprintf("%s 🚨 交易形态预警！", emoji)
	fmt.Printf("║ %s%s ║\n", title, strings.Repeat(" ", safePadding(title, 60)))
	fmt.Println("║" + strings.Repeat(" ", 60) + "║")

	rows := []string{
		fmt.Sprintf("交易对: %s", setup.Symbol),
		fmt.Sprintf("形态: %s", setup.SetupType),
		fmt.Sprintf("入场价: $%.6f", setup.EntryPrice),
		fmt.Sprintf("止损价: $%.6f", setup.StopLoss),
		fmt.Sprintf("止盈价: $%.6f", setup.TakeProfit),
		fmt.Sprintf("盈亏比: %.1f:1", setup.RiskReward),
		fmt.Sprintf("置信度: %.0f%%", setup.Confidence*100),
		fmt.Sprintf("建议杠杆: %dx", setup.Leverage),
		fmt.Sprintf("仓位: %.4f  风险额: $%.2f", setup.PositionSize, setup.RiskAmount),
		fmt.Sprintf("市场状态: %s", setup.MarketCondition),
		fmt.Sprintf("说明: %s", setup.Description),
		fmt.Sprintf("时间: %s", setup.Timestamp.Format("2006-01-02 15:04:05")),
	}
	for _, row := range rows {
		fmt.Printf("║ %s%s ║\n", row, strings.Repeat(" ", safePadding(row, 60)))
	}

	fmt.Println("║" + strings.Repeat(" ", 60) + "║")
	hint := "💡 请结合自身风险偏好决策，预警不构成投资建议！"
	fmt.Printf("║ %s%s ║\n", hint, strings.Repeat(" ", safePadding(hint, 60)))
	fmt.Println(bottomBorder)
	fmt.Println()
}

func (cn *ConsoleNotifier) printBatch(setups []*types.TradingSetup) {
	border := "╔" + strings.Repeat("═", 80) + "╗"
	bottomBorder := "╚" + strings.Repeat("═", 80) + "╝"

	fmt.Println()
	fmt.Println(border)

	title := fmt.Sprintf("🚨 批量形态预警！- %d个交易机会", len(setups))
	fmt.Printf("║ %s%s ║\n", title, strings.Repeat(" ", safePadding(title, 80)))
	fmt.Println("║" + strings.Repeat(" ", 80) + "║")

	for i, setup := range setups {
		content := fmt.Sprintf("  %d. %s %s [%s] 入场$%.6f 置信度%.0f%%",
			i+1, setupEmoji(setup.SetupType), setup.Symbol, setup.SetupType,
			setup.EntryPrice, setup.Confidence*100)
		fmt.Printf("║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, 80)))
	}

	fmt.Println("║" + strings.Repeat(" ", 80) + "║")
	timeStr := fmt.Sprintf("预警时间: %s", setups[0].Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("║ %s%s ║\n", timeStr, strings.Repeat(" ", safePadding(timeStr, 80)))
	fmt.Println(bottomBorder)
	fmt.Println()
}
