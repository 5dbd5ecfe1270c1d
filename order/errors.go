package order

import "fmt"

// 报单失败消息模板（统一口径，回测与实盘共用）
const (
	StockOrderFailedTpl  = "股票报单失败，合约：【%s】,股数：【%s】股, 账号：【%s】,%s, %s, 订单id:%s, 信息：%s"
	FutureOrderFailedTpl = "期货报单失败，合约：【%s】,手数：【%s】手, 账号：【%s】,%s, %s, 订单id:%s, 信息：%s"
	FundOrderFailedTpl   = "基金报单失败，合约：【%s】,数量：【%s】, 账号：【%s】,%s, 订单id:%s, 信息：%s"
)

// 报单校验失败原因
const (
	ReasonQuantityIllegal   = "下单数量不合法"
	ReasonStarMinQuantity   = "科创板单笔申报不得低于200股"
	ReasonLotNotRound       = "下单数量必须为100的整数倍"
	ReasonAccountNotExist   = "资金账号不存在"
	ReasonCashNotEnough     = "可用资金不足"
	ReasonPositionNotEnough = "可平仓位不足"
	ReasonTdPositionLack    = "可平今仓位不足"
	ReasonPriceOverLimit    = "委托价格超出涨跌停限制"
	ReasonPriceOutOfRange   = "撮合价格超出当日价格区间"
	ReasonSymbolCannotCross = "该合约当日无法撮合成交"
	ReasonSymbolSuspended   = "该合约停牌或无行情"
	ReasonSymbolNoQuotation = "该合约无行情报价"
	ReasonSymbolLimitHigh   = "该合约已封涨停板，买入无法成交"
	ReasonSymbolLimitLow    = "该合约已封跌停板，卖出无法成交"
	ReasonRiskControl       = "触发风控规则"
	ReasonVolumeNotEnough   = "市场成交量不足，剩余部分已撤单"
	ReasonEndOfDayCancel    = "交易日结束，未成交部分已撤单"
	ReasonFundCoverOld      = "新单覆盖，同向未确认旧单已撤销"
	ReasonBrokerReject      = "柜台拒单"
)

// CashNotEnoughDetail 资金不足明细
func CashNotEnoughDetail(need, available float64) string {
	return fmt.Sprintf("%s，需要资金：【%.2f】，可用资金：【%.2f】", ReasonCashNotEnough, need, available)
}

// PositionNotEnoughDetail 仓位不足明细
func PositionNotEnoughDetail(need, closable int) string {
	return fmt.Sprintf("%s，需要仓位：【%d】，可平仓位：【%d】", ReasonPositionNotEnough, need, closable)
}

// PriceOverLimitDetail 价格越限明细
func PriceOverLimitDetail(price, low, high float64) string {
	return fmt.Sprintf("%s，委托价：【%.4f】，价格区间：【%.4f ~ %.4f】", ReasonPriceOverLimit, price, low, high)
}

// FailedMessage 按资产类别拼装报单失败消息
func FailedMessage(o *Order, reason string) string {
	switch o.Class {
	case 1: // 期货
		return fmt.Sprintf(FutureOrderFailedTpl, o.Symbol,
			fmt.Sprintf("%d", o.Quantity), o.AccountID,
			o.SideName(), o.EffectName(), o.OrderID, reason)
	case 2: // 基金
		qty := fmt.Sprintf("%d", o.Quantity)
		if o.Side == SideBuy {
			qty = fmt.Sprintf("%.2f元", o.Amount)
		} else if o.Shares > 0 {
			qty = fmt.Sprintf("%.4f份", o.Shares)
		}
		return fmt.Sprintf(FundOrderFailedTpl, o.Symbol, qty, o.AccountID,
			o.SideName(), o.OrderID, reason)
	default: // 股票
		return fmt.Sprintf(StockOrderFailedTpl, o.Symbol,
			fmt.Sprintf("%d", o.Quantity), o.AccountID,
			o.SideName(), o.PriceTypeName(), o.OrderID, reason)
	}
}
