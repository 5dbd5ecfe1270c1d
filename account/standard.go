package account

import "pandaquant/logger"

// 基准组合的名义资金
const standardStartValue = 1000000

// Standard 基准收益跟踪
//
// 首个交易日按收盘价（基金为净值）全仓买入后持有，分红现金计入、
// 送转份额放大，逐日记录基准组合的日收益率序列。
type Standard struct {
	Symbol string `json:"symbol"`

	Position  float64 `json:"position"`   // 名义份额
	Cash      float64 `json:"cash"`       // 分红现金
	LastValue float64 `json:"last_value"` // 上一日组合价值

	Dates   []string  `json:"dates"`
	Returns []float64 `json:"returns"` // 日收益率序列
	Values  []float64 `json:"values"`  // 组合价值序列
}

// NewStandard 创建基准跟踪器
func NewStandard(symbol string) *Standard {
	return &Standard{Symbol: symbol}
}

// OnEndDate 日终按价格推进基准组合
func (s *Standard) OnEndDate(date string, price float64) {
	if price <= 0 {
		// 停牌沿用上一日价值，收益率记零
		if s.LastValue > 0 {
			s.Dates = append(s.Dates, date)
			s.Returns = append(s.Returns, 0)
			s.Values = append(s.Values, s.LastValue)
		}
		return
	}

	if s.Position == 0 {
		s.Position = standardStartValue / price
		s.LastValue = standardStartValue
		s.Dates = append(s.Dates, date)
		s.Returns = append(s.Returns, 0)
		s.Values = append(s.Values, s.LastValue)
		logger.Info("📐 基准建仓: %s, 价格 %.4f", s.Symbol, price)
		return
	}

	value := s.Position*price + s.Cash
	var ret float64
	if s.LastValue > 0 {
		ret = value/s.LastValue - 1
	}
	s.Dates = append(s.Dates, date)
	s.Returns = append(s.Returns, ret)
	s.Values = append(s.Values, value)
	s.LastValue = value
}

// Dividend 基准分红除权
func (s *Standard) Dividend(cashPerShare, shareRatio float64) {
	if s.Position == 0 {
		return
	}
	if cashPerShare > 0 {
		s.Cash += cashPerShare * s.Position
	}
	if shareRatio > 0 {
		s.Position *= 1 + shareRatio
	}
}

// TotalReturn 基准累计收益率
func (s *Standard) TotalReturn() float64 {
	if s.LastValue == 0 {
		return 0
	}
	return s.LastValue/standardStartValue - 1
}
