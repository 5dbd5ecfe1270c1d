package account

import (
	"pandaquant/order"
)

// Cashier 资金划转端
type Cashier interface {
	AddCash(amount float64)
	WithdrawCash(amount float64) bool
}

// ProfitPoint 每日绩效点
type ProfitPoint struct {
	Date        string  `json:"date"`
	TotalProfit float64 `json:"total_profit"` // 组合总资金
	DailyPnl    float64 `json:"daily_pnl"`    // 当日盈亏
	AddProfit   float64 `json:"add_profit"`   // 累计收益
	DailyReturn float64 `json:"daily_return"` // 日收益率
	TotalReturn float64 `json:"total_return"` // 累计收益率
	StandardReturn float64 `json:"standard_return"` // 基准日收益率
}

// AllResult 组合总账
//
// 汇总三类账户的恒等式指标，为行情派发提供持仓与挂单合约清单，
// 逐日采集组合绩效序列。
type AllResult struct {
	StockAccounts  map[string]*StockAccount  `json:"stock_accounts"`
	FutureAccounts map[string]*FutureAccount `json:"future_accounts"`
	FundAccounts   map[string]*FundAccount   `json:"fund_accounts"`

	Standard *Standard `json:"standard"`

	Profits []*ProfitPoint `json:"profits"`

	stockBook  *order.Book
	futureBook *order.Book
	fundBook   *order.Book
}

// NewAllResult 创建组合总账
func NewAllResult() *AllResult {
	return &AllResult{
		StockAccounts:  make(map[string]*StockAccount),
		FutureAccounts: make(map[string]*FutureAccount),
		FundAccounts:   make(map[string]*FundAccount),
	}
}

// AttachBooks 挂接三类在途报单簿（行情覆盖挂单合约）
func (r *AllResult) AttachBooks(stock, future, fund *order.Book) {
	r.stockBook = stock
	r.futureBook = future
	r.fundBook = fund
}

// HeldSymbols 持仓与挂单覆盖的合约清单
func (r *AllResult) HeldSymbols() (stocks, futures, funds []string) {
	stockSet := map[string]struct{}{}
	futureSet := map[string]struct{}{}
	fundSet := map[string]struct{}{}

	for _, a := range r.StockAccounts {
		for _, s := range a.Symbols() {
			stockSet[s] = struct{}{}
		}
	}
	for _, a := range r.FutureAccounts {
		for _, s := range a.Symbols() {
			futureSet[s] = struct{}{}
		}
	}
	for _, a := range r.FundAccounts {
		for _, s := range a.Symbols() {
			fundSet[s] = struct{}{}
		}
	}

	addBook := func(b *order.Book, set map[string]struct{}) {
		if b == nil {
			return
		}
		for _, o := range b.All() {
			set[o.Symbol] = struct{}{}
		}
	}
	addBook(r.stockBook, stockSet)
	addBook(r.futureBook, futureSet)
	addBook(r.fundBook, fundSet)

	for s := range stockSet {
		stocks = append(stocks, s)
	}
	for s := range futureSet {
		futures = append(futures, s)
	}
	for s := range fundSet {
		funds = append(funds, s)
	}
	return stocks, futures, funds
}

// StartCapitalSum 初始资金合计
func (r *AllResult) StartCapitalSum() float64 {
	var sum float64
	for _, a := range r.StockAccounts {
		sum += a.StartCapital
	}
	for _, a := range r.FutureAccounts {
		sum += a.StartCapital
	}
	for _, a := range r.FundAccounts {
		sum += a.StartCapital
	}
	return sum
}

// TotalProfitSum 总资金合计
func (r *AllResult) TotalProfitSum() float64 {
	var sum float64
	for _, a := range r.StockAccounts {
		sum += a.TotalProfit()
	}
	for _, a := range r.FutureAccounts {
		sum += a.TotalProfit()
	}
	for _, a := range r.FundAccounts {
		sum += a.TotalProfit()
	}
	return sum
}

// AddProfitSum 累计收益合计
func (r *AllResult) AddProfitSum() float64 {
	var sum float64
	for _, a := range r.StockAccounts {
		sum += a.AddProfit()
	}
	for _, a := range r.FutureAccounts {
		sum += a.AddProfit()
	}
	for _, a := range r.FundAccounts {
		sum += a.AddProfit()
	}
	return sum
}

// YesTotalSum 昨日总资金合计
func (r *AllResult) YesTotalSum() float64 {
	var sum float64
	for _, a := range r.StockAccounts {
		sum += a.YesTotalCapital
	}
	for _, a := range r.FutureAccounts {
		sum += a.YesTotalCapital
	}
	for _, a := range r.FundAccounts {
		sum += a.YesTotalCapital
	}
	return sum
}

// TotalReturn 组合累计收益率
func (r *AllResult) TotalReturn() float64 {
	start := r.StartCapitalSum()
	if start == 0 {
		return 0
	}
	return r.AddProfitSum() / start
}

// DailyReturn 组合日收益率
func (r *AllResult) DailyReturn() float64 {
	yes := r.YesTotalSum()
	if yes == 0 {
		return 0
	}
	return r.TotalProfitSum()/yes - 1
}

// DailyPnl 组合当日盈亏
//
// 股票账户贡献为总资金变化，期货账户贡献为浮动盈亏加平仓盈亏
// 减手续费。
func (r *AllResult) DailyPnl() float64 {
	var sum float64
	for _, a := range r.StockAccounts {
		sum += a.TotalProfit() - a.YesTotalCapital
	}
	for _, a := range r.FutureAccounts {
		sum += a.HoldingPnl() + a.RealizedPnl() - a.TotalCost()
	}
	for _, a := range r.FundAccounts {
		sum += a.TotalProfit() - a.YesTotalCapital
	}
	return sum
}

// CollectDaily 日终采集绩效点
func (r *AllResult) CollectDaily(date string) *ProfitPoint {
	p := &ProfitPoint{
		Date:        date,
		TotalProfit: r.TotalProfitSum(),
		DailyPnl:    r.DailyPnl(),
		AddProfit:   r.AddProfitSum(),
		DailyReturn: r.DailyReturn(),
		TotalReturn: r.TotalReturn(),
	}
	if r.Standard != nil && len(r.Standard.Returns) > 0 {
		p.StandardReturn = r.Standard.Returns[len(r.Standard.Returns)-1]
	}
	r.Profits = append(r.Profits, p)
	return p
}

// Transfer 账户间资金划转
func (r *AllResult) Transfer(from, to Cashier, amount float64) bool {
	if amount <= 0 || from == nil || to == nil {
		return false
	}
	if !from.WithdrawCash(amount) {
		return false
	}
	to.AddCash(amount)
	return true
}
