package database

import (
	"context"

	"gorm.io/gorm"

	"pandaquant/exchange"
	"pandaquant/instrument"
	"pandaquant/order"
	"pandaquant/quotation"
)

// Store 同时充当合约信息、行情、费率与分红的数据源，
// 对应的接口断言集中在这里，改动接口时编译期暴露。
var (
	_ instrument.Source       = (*Store)(nil)
	_ quotation.Source        = (*Store)(nil)
	_ order.FutureRateSource  = (*Store)(nil)
	_ order.FundRateSource    = (*Store)(nil)
	_ exchange.DividendSource = (*Store)(nil)
)

// FutureInfo 取期货合约信息
func (s *Store) FutureInfo(ctx context.Context, symbol string) (*instrument.FutureInfo, error) {
	var r FutureInfoRecord
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instrument.FutureInfo{
		Symbol:           r.Symbol,
		Name:             r.Name,
		ContractMul:      r.ContractMul,
		MinPriceChg:      r.MinPriceChg,
		LongMargin:       r.LongMargin,
		ShortMargin:      r.ShortMargin,
		Margin:           r.Margin,
		FirstTransMargin: r.FirstTransMargin,
		LimitRate:        r.LimitRate,
		LastTradeDate:    r.LastTradeDate,
	}, nil
}

// StockInfo 取股票合约信息
func (s *Store) StockInfo(ctx context.Context, symbol string) (*instrument.StockInfo, error) {
	var r StockInfoRecord
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instrument.StockInfo{Symbol: r.Symbol, Name: r.Name}, nil
}

// FundInfo 取基金合约信息
func (s *Store) FundInfo(ctx context.Context, symbol string) (*instrument.FundInfo, error) {
	var r FundInfoRecord
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instrument.FundInfo{Symbol: r.Symbol, Name: r.Name, FundType: r.FundType}, nil
}

// TradeDates 取区间内交易日（升序）
func (s *Store) TradeDates(ctx context.Context, start, end string) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).Model(&TradeDateRecord{}).
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").
		Pluck("date", &dates).Error
	return dates, err
}

// Bar 取单根K线，缺失返回 (nil, nil)
//
// 日线数据的 hms 列为空串，按时刻查不到时回落到当日日线行。
func (s *Store) Bar(ctx context.Context, symbol, date, hms string) (*quotation.Bar, error) {
	var r MarketBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND trade_date = ? AND hms = ?", symbol, date, hms).
		First(&r).Error
	if err == gorm.ErrRecordNotFound && hms != "" {
		err = s.db.WithContext(ctx).
			Where("symbol = ? AND trade_date = ? AND hms = ''", symbol, date).
			First(&r).Error
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quotation.Bar{
		Symbol:       r.Symbol,
		TradeDate:    r.TradeDate,
		Hms:          r.Hms,
		Open:         r.Open,
		High:         r.High,
		Low:          r.Low,
		Close:        r.Close,
		Volume:       r.Volume,
		Turnover:     r.Turnover,
		Settle:       r.Settle,
		PrevSettle:   r.PrevSettle,
		LimitUp:      r.LimitUp,
		LimitDown:    r.LimitDown,
		OpenInterest: r.OpenInterest,
		UnitNav:      r.UnitNav,
		Suspended:    r.Suspended,
	}, nil
}

// Settlement 取期货结算价与昨结算价（日线行）
func (s *Store) Settlement(ctx context.Context, symbol, date string) (float64, float64, error) {
	var r MarketBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND trade_date = ? AND hms = ''", symbol, date).
		First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return r.Settle, r.PrevSettle, nil
}

// UnitNav 取基金单位净值
func (s *Store) UnitNav(ctx context.Context, symbol, date string) (float64, error) {
	var r MarketBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND trade_date = ? AND hms = ''", symbol, date).
		First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.UnitNav, nil
}

// FutureFeeRate 取期货手续费率
func (s *Store) FutureFeeRate(ctx context.Context, symbol string) (*order.FutureFeeRate, error) {
	var r FutureFeeRecord
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order.FutureFeeRate{
		Symbol:      r.Symbol,
		CostType:    r.CostType,
		OpenRate:    r.OpenRate,
		CloseRate:   r.CloseRate,
		CloseTdRate: r.CloseTdRate,
	}, nil
}

// FundFeeTiers 取基金费率档位（合约自有档 + 类别默认档）
func (s *Store) FundFeeTiers(ctx context.Context, symbol, fundType string) ([]*order.FundFeeTier, error) {
	var rows []*FundFeeRecord
	err := s.db.WithContext(ctx).
		Where("symbol = ? OR (symbol = '' AND fund_type = ?)", symbol, fundType).
		Order("low ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tiers := make([]*order.FundFeeTier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, &order.FundFeeTier{
			Symbol:   r.Symbol,
			FundType: r.FundType,
			Side:     r.Side,
			Low:      r.Low,
			High:     r.High,
			Rate:     r.Rate,
		})
	}
	return tiers, nil
}

// Dividends 取指定除权日的分红记录
func (s *Store) Dividends(ctx context.Context, date string) ([]*exchange.DividendRecord, error) {
	var rows []*StockDividendRecord
	err := s.db.WithContext(ctx).Where("ex_date = ?", date).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*exchange.DividendRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &exchange.DividendRecord{
			Symbol:       r.Symbol,
			ExDate:       r.ExDate,
			CashPerShare: r.CashPerShare,
			ShareRatio:   r.ShareRatio,
			SplitRatio:   r.SplitRatio,
		})
	}
	return out, nil
}
