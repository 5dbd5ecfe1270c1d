package order

import (
	"errors"

	"pandaquant/instrument"
	"pandaquant/quotation"
)

// StockBuilder 股票报单构造器
//
// 负责数量合法性（手数规则）与市价单价格落位，账户资金与仓位
// 校验在撮合入口的校验链完成。
type StockBuilder struct {
	infos *instrument.InfoMap
	bars  *quotation.BarMap
}

// NewStockBuilder 创建股票报单构造器
func NewStockBuilder(infos *instrument.InfoMap, bars *quotation.BarMap) *StockBuilder {
	return &StockBuilder{infos: infos, bars: bars}
}

// Build 构造股票报单
//
// sellable 为当前可卖数量，用于零股卖出豁免：卖出数量等于全部
// 可卖数量时不受 100 股整数倍约束。
func (b *StockBuilder) Build(accountID, symbol string, side, priceType int,
	price float64, qty, sellable int, date, tradeDate, hms string) (*Order, error) {

	if qty <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	info := b.infos.Stock(symbol)
	if info.IsSTAR() {
		// 科创板：最低 200 股，超出部分 1 股递增
		if qty < 200 {
			return nil, errors.New(ReasonStarMinQuantity)
		}
	} else if side == SideBuy {
		if qty%100 != 0 {
			return nil, errors.New(ReasonLotNotRound)
		}
	} else {
		// 卖出允许零股，但仅限一次性卖出全部可卖
		if qty%100 != 0 && qty != sellable {
			return nil, errors.New(ReasonLotNotRound)
		}
	}

	o := &Order{
		OrderID:   NextID(tradeDate),
		AccountID: accountID,
		Symbol:    symbol,
		Class:     instrument.ClassStock,
		Side:      side,
		PriceType: priceType,
		Price:     price,
		Quantity:  qty,
		Status:    StatusWait,
		Date:      date,
		TradeDate: tradeDate,
		Hms:       hms,
	}

	// 市价单以当前行情价落位，用于冻结资金与限价校验
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
	}
	if o.Price <= 0 {
		return nil, errors.New(ReasonQuantityIllegal)
	}

	return o, nil
}
