package strategy

import (
	"encoding/json"
	"sync"

	"pandaquant/account"
	"pandaquant/config"
	"pandaquant/exchange"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// Context 策略运行上下文
//
// 策略通过上下文访问行情、账户与下单接口。时钟字段由引擎在每个
// 驱动点刷新，用户属性跨交易日保留并随快照持久化。
type Context struct {
	Run     *config.RunConfig
	Results *account.AllResult

	Stock  *exchange.StockExchange
	Future *exchange.FutureExchange
	Fund   *exchange.FundExchange

	Quotes *quotation.Subscribe

	Date      string // 当前自然日 yyyyMMdd
	TradeDate string // 当前交易日
	Hms       string // 当前时刻 HHmmss

	mu    sync.RWMutex
	attrs map[string]interface{} // 用户属性，跨日保留
}

// NewContext 创建策略上下文
func NewContext(run *config.RunConfig, results *account.AllResult, quotes *quotation.Subscribe,
	stock *exchange.StockExchange, future *exchange.FutureExchange, fund *exchange.FundExchange) *Context {

	return &Context{
		Run:     run,
		Results: results,
		Stock:   stock,
		Future:  future,
		Fund:    fund,
		Quotes:  quotes,
		attrs:   make(map[string]interface{}),
	}
}

// SetClock 刷新时钟（引擎调用）
func (c *Context) SetClock(date, tradeDate, hms string) {
	c.Date = date
	c.TradeDate = tradeDate
	c.Hms = hms
}

// IsTradeDateEnd 是否处于交易日收盘时点
func (c *Context) IsTradeDateEnd() bool {
	return c.Hms == "150000"
}

// StockBar 取股票当前行情
func (c *Context) StockBar(symbol string) *quotation.Bar {
	return c.Quotes.StockBars.Get(symbol)
}

// FutureBar 取期货当前行情
func (c *Context) FutureBar(symbol string) *quotation.Bar {
	return c.Quotes.FutureBars.Get(symbol)
}

// FundBar 取基金当前行情
func (c *Context) FundBar(symbol string) *quotation.Bar {
	return c.Quotes.FundBars.Get(symbol)
}

// SubQuotation 订阅行情
func (c *Context) SubQuotation(class int, symbols ...string) {
	c.Quotes.Sub(class, symbols...)
}

// UnsubQuotation 退订行情
func (c *Context) UnsubQuotation(class int, symbols ...string) {
	c.Quotes.Unsub(class, symbols...)
}

// BuyStock 买入股票，返回报单
func (c *Context) BuyStock(symbol string, priceType int, price float64, qty int) *order.Order {
	return c.Stock.Insert(c.Run.StockAccount, symbol, order.SideBuy, priceType,
		price, qty, c.Date, c.TradeDate, c.Hms)
}

// SellStock 卖出股票
func (c *Context) SellStock(symbol string, priceType int, price float64, qty int) *order.Order {
	return c.Stock.Insert(c.Run.StockAccount, symbol, order.SideSell, priceType,
		price, qty, c.Date, c.TradeDate, c.Hms)
}

// BuyOpen 期货买开
func (c *Context) BuyOpen(symbol string, priceType int, price float64, qty int) *order.Order {
	return c.Future.Insert(c.Run.FutureAccount, symbol, order.SideBuy, order.Open,
		priceType, price, qty, false, c.Date, c.TradeDate, c.Hms)
}

// SellOpen 期货卖开
func (c *Context) SellOpen(symbol string, priceType int, price float64, qty int) *order.Order {
	return c.Future.Insert(c.Run.FutureAccount, symbol, order.SideSell, order.Open,
		priceType, price, qty, false, c.Date, c.TradeDate, c.Hms)
}

// BuyClose 期货买平（平空头）
func (c *Context) BuyClose(symbol string, priceType int, price float64, qty int, closeToday bool) *order.Order {
	return c.Future.Insert(c.Run.FutureAccount, symbol, order.SideBuy, order.Close,
		priceType, price, qty, closeToday, c.Date, c.TradeDate, c.Hms)
}

// SellClose 期货卖平（平多头）
func (c *Context) SellClose(symbol string, priceType int, price float64, qty int, closeToday bool) *order.Order {
	return c.Future.Insert(c.Run.FutureAccount, symbol, order.SideSell, order.Close,
		priceType, price, qty, closeToday, c.Date, c.TradeDate, c.Hms)
}

// PurchaseFund 申购基金（按金额）
func (c *Context) PurchaseFund(symbol string, amount float64) *order.Order {
	return c.Fund.Purchase(c.Run.FundAccount, symbol, amount, c.Date, c.TradeDate, c.Hms)
}

// RedeemFund 赎回基金（按份额）
func (c *Context) RedeemFund(symbol string, shares float64) *order.Order {
	return c.Fund.Redeem(c.Run.FundAccount, symbol, shares, c.Date, c.TradeDate, c.Hms)
}

// CancelOrder 按资产类别撤单
func (c *Context) CancelOrder(class int, orderID string) bool {
	switch class {
	case instrument.ClassFuture:
		return c.Future.Cancel(orderID)
	case instrument.ClassFund:
		return c.Fund.Cancel(orderID)
	default:
		return c.Stock.Cancel(orderID)
	}
}

// StockAccount 当前股票账户
func (c *Context) StockAccount() *account.StockAccount {
	return c.Results.StockAccounts[c.Run.StockAccount]
}

// FutureAccount 当前期货账户
func (c *Context) FutureAccount() *account.FutureAccount {
	return c.Results.FutureAccounts[c.Run.FutureAccount]
}

// FundAccount 当前基金账户
func (c *Context) FundAccount() *account.FundAccount {
	return c.Results.FundAccounts[c.Run.FundAccount]
}

// SetAttr 写用户属性
func (c *Context) SetAttr(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[key] = value
}

// GetAttr 读用户属性
func (c *Context) GetAttr(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.attrs[key]
	return v, ok
}

// AttrsSnapshot 序列化用户属性（重启恢复用）
func (c *Context) AttrsSnapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c.attrs)
}

// RestoreAttrs 从快照恢复用户属性
func (c *Context) RestoreAttrs(data []byte) error {
	attrs := make(map[string]interface{})
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs = attrs
	return nil
}

// Log 策略日志
func (c *Context) Log(format string, args ...interface{}) {
	logger.Info("📈 [%s] "+format, append([]interface{}{c.Run.StrategyName}, args...)...)
}
