package quotation

import "context"

// Source 行情数据源
//
// 日线模式传空 hms；分钟模式 hms 为 "HHmmss"。查不到应返回
// (nil, nil)，由调用方按空行情处理。
type Source interface {
	// Bar 取单根K线
	Bar(ctx context.Context, symbol, date, hms string) (*Bar, error)

	// Settlement 取期货结算价与昨结算价
	Settlement(ctx context.Context, symbol, date string) (settle, prevSettle float64, err error)

	// UnitNav 取基金单位净值
	UnitNav(ctx context.Context, symbol, date string) (float64, error)
}
