package exchange

import (
	"pandaquant/order"
)

// RiskChecker 风控校验端，报单校验链最后一环
type RiskChecker interface {
	CheckOrder(o *order.Order) (pass bool, reason string)
}

// 股票佣金：万八起，最低 5 元；卖出另收千一印花税
const (
	stockCommissionRate = 0.0008
	stockMinCommission  = 5
	stockSellTaxRate    = 0.001
)

// stockCommission 股票佣金
func stockCommission(notional, multiplier float64) float64 {
	c := notional * multiplier * stockCommissionRate
	if c < stockMinCommission {
		return stockMinCommission
	}
	return c
}

// stockTradeCost 股票交易费用（佣金 + 卖出印花税）
func stockTradeCost(side int, notional, multiplier float64) float64 {
	cost := stockCommission(notional, multiplier)
	if side == order.SideSell {
		cost += notional * stockSellTaxRate
	}
	return cost
}
