package order

import (
	"errors"

	"github.com/shopspring/decimal"

	"pandaquant/instrument"
)

// FundBuilder 基金报单构造器
//
// 基金按确认日跨日撮合：15:00 前申报次一交易日确认，15:00 后顺延
// 一日，QDII 基金再顺延一日；赎回资金在确认日加延迟天数后的首个
// 交易日到账。
type FundBuilder struct {
	infos    *instrument.InfoMap
	calendar *instrument.Calendar

	coverOld    int
	latencyDate int
}

// NewFundBuilder 创建基金报单构造器
func NewFundBuilder(infos *instrument.InfoMap, calendar *instrument.Calendar, coverOld, latencyDate int) *FundBuilder {
	if latencyDate <= 0 {
		latencyDate = 7
	}
	return &FundBuilder{infos: infos, calendar: calendar, coverOld: coverOld, latencyDate: latencyDate}
}

// BuildPurchase 构造申购单（按金额）
func (b *FundBuilder) BuildPurchase(accountID, symbol string, amount float64,
	date, tradeDate, hms string) (*Order, error) {

	if amount <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	o := b.base(accountID, symbol, SideBuy, date, tradeDate, hms)
	o.Amount = amount
	return o, nil
}

// BuildRedeem 构造赎回单（按份额，四位小数向下取整）
func (b *FundBuilder) BuildRedeem(accountID, symbol string, shares float64,
	date, tradeDate, hms string) (*Order, error) {

	if shares <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	o := b.base(accountID, symbol, SideSell, date, tradeDate, hms)
	o.Shares = FloorShares(shares)
	o.LatencyDate = b.latencyDate
	o.ArriveDate = b.arriveDate(o.CrossDate)
	return o, nil
}

// base 公共字段与确认日计算
func (b *FundBuilder) base(accountID, symbol string, side int, date, tradeDate, hms string) *Order {
	info := b.infos.Fund(symbol)

	n := 1
	if hms > "150000" {
		n = 2
	}
	if info.IsQDII() {
		n++
	}

	return &Order{
		OrderID:      NextID(tradeDate),
		AccountID:    accountID,
		Symbol:       symbol,
		Class:        instrument.ClassFund,
		Side:         side,
		PriceType:    PriceTypeMarket,
		Status:       StatusWait,
		Date:         date,
		TradeDate:    tradeDate,
		Hms:          hms,
		CrossDate:    b.calendar.NextTradeDate(tradeDate, n),
		FundCoverOld: b.coverOld,
	}
}

// arriveDate 赎回资金到账日：确认日加延迟自然日后的首个交易日
func (b *FundBuilder) arriveDate(crossDate string) string {
	if crossDate == "" {
		return ""
	}
	day := instrument.NextNaturalDate(crossDate, b.latencyDate)
	if b.calendar.IsTradeDate(day) {
		return day
	}
	return b.calendar.NextTradeDate(day, 1)
}

// FloorShares 份额四位小数向下取整
func FloorShares(shares float64) float64 {
	d := decimal.NewFromFloat(shares)
	f, _ := d.Mul(decimal.NewFromInt(10000)).Floor().Div(decimal.NewFromInt(10000)).Float64()
	return f
}
