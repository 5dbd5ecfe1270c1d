package exchange

import (
	"context"

	"pandaquant/account"
	"pandaquant/logger"
	"pandaquant/quotation"
)

// SettleManager 期货日终结算
//
// 日终流程：逐合约按结算价结算持仓，到期合约交割，最后穿仓检查。
// 结算价优先取数据源，缺失回落到行情视图的结算价或收盘价。
type SettleManager struct {
	bars    *quotation.BarMap
	source  quotation.Source
	results *account.AllResult
}

// NewSettleManager 创建结算管理器
func NewSettleManager(bars *quotation.BarMap, source quotation.Source, results *account.AllResult) *SettleManager {
	return &SettleManager{bars: bars, source: source, results: results}
}

// Run 执行指定交易日的日终结算
func (m *SettleManager) Run(ctx context.Context, date string) {
	for _, acct := range m.results.FutureAccounts {
		if acct.Burned {
			continue
		}
		for _, symbol := range acct.Symbols() {
			settle := m.settlePrice(ctx, symbol, date)
			if settle <= 0 {
				logger.Warn("⚠️ 缺结算价跳过结算: %s %s", symbol, date)
				continue
			}
			acct.Settle(symbol, settle)
			acct.Delivery(symbol, date, settle)
		}
		acct.BurnCheck()
	}
}

// settlePrice 取结算价，数据源优先
func (m *SettleManager) settlePrice(ctx context.Context, symbol, date string) float64 {
	if m.source != nil {
		settle, _, err := m.source.Settlement(ctx, symbol, date)
		if err != nil {
			logger.Warn("⚠️ 结算价查询失败: %s %s, %v", symbol, date, err)
		} else if settle > 0 {
			return settle
		}
	}

	bar := m.bars.Get(symbol)
	if bar.Settle > 0 {
		return bar.Settle
	}
	return bar.Close
}
