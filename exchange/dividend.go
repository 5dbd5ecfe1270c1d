package exchange

import (
	"context"

	"pandaquant/account"
	"pandaquant/logger"
)

// DividendRecord 分红除权记录
//
// 股票为每股现金红利与送转比例，基金拆分用 SplitRatio（1 拆 N）。
type DividendRecord struct {
	Symbol       string  `json:"symbol"`
	ExDate       string  `json:"ex_date"` // 除权除息日 yyyyMMdd
	CashPerShare float64 `json:"cash_per_share"`
	ShareRatio   float64 `json:"share_ratio"`
	SplitRatio   float64 `json:"split_ratio"`
}

// DividendSource 分红数据源
type DividendSource interface {
	// Dividends 取指定除权日的全部分红记录
	Dividends(ctx context.Context, date string) ([]*DividendRecord, error)
}

// DividendManager 分红除权处理
//
// 换日时查询当日除权记录，对持仓账户执行现金红利入账与送转股
// 调整，对基金持仓执行拆分，基准指数标的分红同步计入基准组合。
type DividendManager struct {
	source  DividendSource
	results *account.AllResult
}

// NewDividendManager 创建分红管理器
func NewDividendManager(source DividendSource, results *account.AllResult) *DividendManager {
	return &DividendManager{source: source, results: results}
}

// Run 处理指定自然日的分红除权
func (m *DividendManager) Run(ctx context.Context, date string) {
	if m.source == nil {
		return
	}
	records, err := m.source.Dividends(ctx, date)
	if err != nil {
		logger.Warn("⚠️ 分红记录查询失败: %s, %v", date, err)
		return
	}

	for _, r := range records {
		m.apply(r)
	}
}

func (m *DividendManager) apply(r *DividendRecord) {
	for _, acct := range m.results.StockAccounts {
		if _, ok := acct.Positions[r.Symbol]; ok {
			acct.Dividend(r.Symbol, r.CashPerShare, r.ShareRatio)
			logger.Info("💰 股票分红除权: %s, 每股红利 %.4f, 送转比例 %.4f", r.Symbol, r.CashPerShare, r.ShareRatio)
		}
	}

	if r.SplitRatio > 0 {
		for _, acct := range m.results.FundAccounts {
			if _, ok := acct.Positions[r.Symbol]; ok {
				acct.Split(r.Symbol, r.SplitRatio)
				logger.Info("💰 基金拆分: %s, 比例 %.4f", r.Symbol, r.SplitRatio)
			}
		}
	}

	if s := m.results.Standard; s != nil && s.Symbol == r.Symbol {
		s.Dividend(r.CashPerShare, r.ShareRatio)
	}
}
