package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pandaquant/account"
	"pandaquant/database"
	"pandaquant/logger"
)

// Export 导出回测报告到 xlsx，返回文件路径
//
// 三张表：概览、每日绩效、成交流水。
func Export(dir string, s *Summary, profits []*account.ProfitPoint, trades []*database.BacktestTrade) (string, error) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, s); err != nil {
		return "", err
	}
	if err := writeProfitSheet(f, profits); err != nil {
		return "", err
	}
	if err := writeTradeSheet(f, trades); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("backtest_%s.xlsx", s.RunID))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存报告失败: %w", err)
	}
	logger.Info("📊 回测报告已导出: %s", path)
	return path, nil
}

func writeSummarySheet(f *excelize.File, s *Summary) error {
	const sheet = "概览"
	f.SetSheetName("Sheet1", sheet)

	rows := [][2]interface{}{
		{"运行标识", s.RunID},
		{"策略名称", s.StrategyName},
		{"回测区间", fmt.Sprintf("%s ~ %s", s.StartDate, s.EndDate)},
		{"交易日数", s.TradeDays},
		{"成交笔数", s.TradeCount},
		{"累计收益率", s.TotalReturn},
		{"年化收益率", s.AnnualReturn},
		{"基准收益率", s.StandardReturn},
		{"超额收益率", s.ExcessReturn},
		{"年化波动率", s.Volatility},
		{"夏普比率", s.Sharpe},
		{"最大回撤", s.MaxDrawdown},
		{"日胜率", s.WinRate},
	}
	for i, r := range rows {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), r[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeProfitSheet(f *excelize.File, profits []*account.ProfitPoint) error {
	const sheet = "每日绩效"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"交易日", "总资金", "当日盈亏", "累计收益", "日收益率", "累计收益率", "基准日收益率"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, p := range profits {
		values := []interface{}{
			p.Date, p.TotalProfit, p.DailyPnl, p.AddProfit,
			p.DailyReturn, p.TotalReturn, p.StandardReturn,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTradeSheet(f *excelize.File, trades []*database.BacktestTrade) error {
	const sheet = "成交流水"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"成交日", "时刻", "合约", "方向", "开平", "价格", "数量", "金额", "份额", "费用"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, t := range trades {
		side := "买入"
		if t.Side == 1 {
			side = "卖出"
		}
		effect := "开仓"
		if t.Effect == 1 {
			effect = "平仓"
		}
		values := []interface{}{
			t.TradeDate, t.Hms, t.Symbol, side, effect,
			t.Price, t.Volume, t.Amount, t.Shares, t.Cost,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
