package strategy

import (
	"strconv"

	"pandaquant/instrument"
	"pandaquant/order"
)

func init() {
	Register("双均线", func() Strategy { return &DoubleMA{} })
}

// DoubleMA 双均线策略
//
// 短均线上穿长均线按市价买入，下穿时清仓。收盘价序列写入用户
// 属性，实盘重启后可接续计算。
type DoubleMA struct {
	symbol string
	short  int
	long   int
	lot    int

	closes []float64
}

// Init 读取参数并订阅行情
func (s *DoubleMA) Init(ctx *Context) error {
	s.symbol = ctx.Run.Param("symbol", "600000.SH")
	s.short = paramInt(ctx, "short", 5)
	s.long = paramInt(ctx, "long", 20)
	s.lot = paramInt(ctx, "lot", 100)

	ctx.SubQuotation(instrument.ClassStock, s.symbol)
	s.restoreCloses(ctx)
	ctx.Log("双均线参数: %s 短 %d 长 %d", s.symbol, s.short, s.long)
	return nil
}

// HandleBar 均线交叉判断
func (s *DoubleMA) HandleBar(ctx *Context) {
	bar := ctx.StockBar(s.symbol)
	if bar == nil {
		return
	}

	s.closes = append(s.closes, bar.Close)
	if len(s.closes) > s.long+1 {
		s.closes = s.closes[len(s.closes)-s.long-1:]
	}
	ctx.SetAttr("closes", s.closes)

	if len(s.closes) < s.long+1 {
		return
	}

	prevShort, prevLong := s.ma(s.short, 1), s.ma(s.long, 1)
	curShort, curLong := s.ma(s.short, 0), s.ma(s.long, 0)

	held := ctx.StockAccount().Sellable(s.symbol)
	if prevShort <= prevLong && curShort > curLong && held == 0 {
		ctx.BuyStock(s.symbol, order.PriceTypeMarket, 0, s.lot)
	} else if prevShort >= prevLong && curShort < curLong && held > 0 {
		ctx.SellStock(s.symbol, order.PriceTypeMarket, 0, held)
	}
}

// OnTrade 成交记录
func (s *DoubleMA) OnTrade(ctx *Context, t *order.Trade) {
	side := "买入"
	if t.Side == order.SideSell {
		side = "卖出"
	}
	ctx.Log("成交 %s %s %d@%.3f", t.Symbol, side, t.Volume, t.Price)
}

// ma 计算均线，offset 为距最新一根的回退根数
func (s *DoubleMA) ma(n, offset int) float64 {
	end := len(s.closes) - offset
	var sum float64
	for _, c := range s.closes[end-n : end] {
		sum += c
	}
	return sum / float64(n)
}

// restoreCloses 从用户属性恢复收盘价序列（实盘重启）
func (s *DoubleMA) restoreCloses(ctx *Context) {
	v, ok := ctx.GetAttr("closes")
	if !ok {
		return
	}
	switch vs := v.(type) {
	case []float64:
		s.closes = vs
	case []interface{}:
		for _, e := range vs {
			if f, k := e.(float64); k {
				s.closes = append(s.closes, f)
			}
		}
	}
}

func paramInt(ctx *Context, key string, fallback int) int {
	v := ctx.Run.Param(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
