package order

import (
	"errors"
	"math"

	"pandaquant/instrument"
	"pandaquant/quotation"
)

// FutureBuilder 期货报单构造器
type FutureBuilder struct {
	infos            *instrument.InfoMap
	bars             *quotation.BarMap
	marginMultiplier float64
}

// NewFutureBuilder 创建期货报单构造器
func NewFutureBuilder(infos *instrument.InfoMap, bars *quotation.BarMap, marginMultiplier float64) *FutureBuilder {
	if marginMultiplier <= 0 {
		marginMultiplier = 1
	}
	return &FutureBuilder{infos: infos, bars: bars, marginMultiplier: marginMultiplier}
}

// Build 构造期货报单
//
// 限价单价格按最小变动价位取整；开仓单预计算冻结保证金。
func (b *FutureBuilder) Build(accountID, symbol string, side, effect, priceType int,
	price float64, qty int, closeToday bool, date, tradeDate, hms string) (*Order, error) {

	if qty <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	info := b.infos.Future(symbol)

	o := &Order{
		OrderID:   NextID(tradeDate),
		AccountID: accountID,
		Symbol:    symbol,
		Class:     instrument.ClassFuture,
		Side:      side,
		Effect:    effect,
		PriceType: priceType,
		Price:     price,
		Quantity:  qty,
		Status:    StatusWait,
		Date:      date,
		TradeDate: tradeDate,
		Hms:       hms,
		IsTdClose: effect == Close && closeToday,
	}
	if o.IsTdClose {
		o.CloseTdPos = qty
	}

	if priceType == PriceTypeMarket {
		bar := b.bars.Get(symbol)
		if bar.Empty() {
			return nil, errors.New(ReasonSymbolSuspended)
		}
		o.Price = bar.Close
		if o.Price == 0 {
			o.Price = bar.Open
		}
		if o.Price <= 0 {
			return nil, errors.New(ReasonSymbolNoQuotation)
		}
	} else if info.MinPriceChg > 0 {
		// 限价按最小变动价位取整
		o.Price = math.Round(o.Price/info.MinPriceChg) * info.MinPriceChg
	}
	if o.Price <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	// 开仓冻结保证金
	if effect == Open {
		rate := info.LongMarginRate(b.marginMultiplier)
		if side == SideSell {
			rate = info.ShortMarginRate(b.marginMultiplier)
		}
		o.Margin = o.Price * float64(qty) * info.ContractMul * rate
	}

	return o, nil
}
