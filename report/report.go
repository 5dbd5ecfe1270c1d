package report

import (
	"math"

	"pandaquant/account"
	"pandaquant/config"
)

// 年化交易日数与无风险收益率
const (
	tradingDaysPerYear = 242
	riskFreeRate       = 0.02
)

// Summary 回测绩效汇总
type Summary struct {
	RunID        string `json:"run_id"`
	StrategyName string `json:"strategy_name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`

	TotalReturn    float64 `json:"total_return"`    // 策略累计收益率
	AnnualReturn   float64 `json:"annual_return"`   // 年化收益率
	StandardReturn float64 `json:"standard_return"` // 基准累计收益率
	ExcessReturn   float64 `json:"excess_return"`   // 超额收益率

	Volatility  float64 `json:"volatility"`   // 年化波动率
	Sharpe      float64 `json:"sharpe"`       // 夏普比率
	MaxDrawdown float64 `json:"max_drawdown"` // 最大回撤
	WinRate     float64 `json:"win_rate"`     // 日胜率

	TradeDays  int `json:"trade_days"`
	TradeCount int `json:"trade_count"`
}

// Compute 从每日绩效序列计算绩效汇总
func Compute(run *config.RunConfig, profits []*account.ProfitPoint, tradeCount int) *Summary {
	s := &Summary{
		RunID:        run.RunID,
		StrategyName: run.StrategyName,
		StartDate:    run.StartDate,
		EndDate:      run.EndDate,
		TradeDays:    len(profits),
		TradeCount:   tradeCount,
	}
	if len(profits) == 0 {
		return s
	}

	s.TotalReturn = profits[len(profits)-1].TotalReturn
	s.AnnualReturn = annualize(s.TotalReturn, len(profits))

	standard := 1.0
	winDays := 0
	returns := make([]float64, 0, len(profits))
	for _, p := range profits {
		returns = append(returns, p.DailyReturn)
		standard *= 1 + p.StandardReturn
		if p.DailyPnl > 0 {
			winDays++
		}
	}
	s.StandardReturn = standard - 1
	s.ExcessReturn = s.TotalReturn - s.StandardReturn
	s.WinRate = float64(winDays) / float64(len(profits))

	s.Volatility = stddev(returns) * math.Sqrt(tradingDaysPerYear)
	if s.Volatility > 0 {
		s.Sharpe = (s.AnnualReturn - riskFreeRate) / s.Volatility
	}
	s.MaxDrawdown = maxDrawdown(profits)
	return s
}

// annualize 按交易日数年化累计收益率
func annualize(totalReturn float64, days int) float64 {
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(days)) - 1
}

// maxDrawdown 总资金序列的最大回撤（正数表示回撤幅度）
func maxDrawdown(profits []*account.ProfitPoint) float64 {
	var peak, maxDd float64
	for _, p := range profits {
		if p.TotalProfit > peak {
			peak = p.TotalProfit
		}
		if peak > 0 {
			dd := (peak - p.TotalProfit) / peak
			if dd > maxDd {
				maxDd = dd
			}
		}
	}
	return maxDd
}

// stddev 样本标准差
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
