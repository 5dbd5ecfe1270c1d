package instrument

import (
	"context"
	"strings"
	"sync"

	"pandaquant/logger"
)

// 资产类别
const (
	ClassStock  = 0 // 股票
	ClassFuture = 1 // 期货
	ClassFund   = 2 // 基金
)

// FutureInfo 期货合约基础信息
type FutureInfo struct {
	Symbol           string  `json:"symbol"`             // 合约代码（引擎后缀，如 IF2001.CFE）
	Name             string  `json:"name"`               // 合约名称
	Exchange         string  `json:"exchange"`           // 交易所（引擎后缀）
	ContractMul      float64 `json:"contractmul"`        // 合约乘数
	MinPriceChg      float64 `json:"ftminpricechg"`      // 最小变动价位
	LongMargin       float64 `json:"long_margin"`        // 多头保证金率（百分数）
	ShortMargin      float64 `json:"short_margin"`       // 空头保证金率（百分数）
	Margin           float64 `json:"margin"`             // 保证金率（百分数，兜底）
	FirstTransMargin float64 `json:"ftfirsttransmargin"` // 交易所初始保证金率（百分数）
	LimitRate        float64 `json:"limit_rate"`         // 涨跌停比例（如 0.1）
	LastTradeDate    string  `json:"lasttradedate"`      // 最后交易日 yyyyMMdd
}

// LongMarginRate 多头保证金率（小数）
//
// 取数顺序：long_margin > margin > ftfirsttransmargin*倍数。
func (f *FutureInfo) LongMarginRate(multiplier float64) float64 {
	if f.LongMargin > 0 {
		return f.LongMargin / 100
	}
	if f.Margin > 0 {
		return f.Margin / 100
	}
	return f.FirstTransMargin / 100 * multiplier
}

// ShortMarginRate 空头保证金率（小数）
func (f *FutureInfo) ShortMarginRate(multiplier float64) float64 {
	if f.ShortMargin > 0 {
		return f.ShortMargin / 100
	}
	if f.Margin > 0 {
		return f.Margin / 100
	}
	return f.FirstTransMargin / 100 * multiplier
}

// StockInfo 股票基础信息
type StockInfo struct {
	Symbol string `json:"symbol"` // 如 600400.SH
	Name   string `json:"name"`
	Type   string `json:"type"` // 证券类型
}

// IsSTAR 是否科创板（最小申报 200 股，超出部分 1 股递增）
func (s *StockInfo) IsSTAR() bool {
	return strings.HasPrefix(s.Symbol, "688")
}

// 基金类型常量
const (
	FundTypeQDII = "101404" // QDII，确认日顺延一天
)

// FundInfo 基金基础信息
type FundInfo struct {
	Symbol   string `json:"symbol"` // 如 000001.OF
	Name     string `json:"name"`
	FundType string `json:"fund_type"` // 基金类别代码
}

// IsQDII 是否 QDII 基金
func (f *FundInfo) IsQDII() bool {
	return f.FundType == FundTypeQDII
}

// Source 合约信息数据源
type Source interface {
	FutureInfo(ctx context.Context, symbol string) (*FutureInfo, error)
	StockInfo(ctx context.Context, symbol string) (*StockInfo, error)
	FundInfo(ctx context.Context, symbol string) (*FundInfo, error)
	TradeDates(ctx context.Context, start, end string) ([]string, error)
}

// InfoMap 合约信息缓存
//
// 查不到时返回「未知」合约（乘数 1），避免撮合链路因数据缺失中断。
type InfoMap struct {
	source Source

	mu      sync.RWMutex
	futures map[string]*FutureInfo
	stocks  map[string]*StockInfo
	funds   map[string]*FundInfo
}

// NewInfoMap 创建合约信息缓存
func NewInfoMap(source Source) *InfoMap {
	return &InfoMap{
		source:  source,
		futures: make(map[string]*FutureInfo),
		stocks:  make(map[string]*StockInfo),
		funds:   make(map[string]*FundInfo),
	}
}

// Future 获取期货合约信息
func (m *InfoMap) Future(symbol string) *FutureInfo {
	m.mu.RLock()
	if info, ok := m.futures[symbol]; ok {
		m.mu.RUnlock()
		return info
	}
	m.mu.RUnlock()

	info, err := m.source.FutureInfo(context.Background(), symbol)
	if err != nil || info == nil {
		logger.Warn("⚠️ 未找到期货合约信息: %s", symbol)
		info = &FutureInfo{Symbol: symbol, Name: "未知", ContractMul: 1, MinPriceChg: 1}
	}

	m.mu.Lock()
	m.futures[symbol] = info
	m.mu.Unlock()
	return info
}

// Stock 获取股票信息
func (m *InfoMap) Stock(symbol string) *StockInfo {
	m.mu.RLock()
	if info, ok := m.stocks[symbol]; ok {
		m.mu.RUnlock()
		return info
	}
	m.mu.RUnlock()

	info, err := m.source.StockInfo(context.Background(), symbol)
	if err != nil || info == nil {
		logger.Warn("⚠️ 未找到股票信息: %s", symbol)
		info = &StockInfo{Symbol: symbol, Name: "未知"}
	}

	m.mu.Lock()
	m.stocks[symbol] = info
	m.mu.Unlock()
	return info
}

// Fund 获取基金信息
func (m *InfoMap) Fund(symbol string) *FundInfo {
	m.mu.RLock()
	if info, ok := m.funds[symbol]; ok {
		m.mu.RUnlock()
		return info
	}
	m.mu.RUnlock()

	info, err := m.source.FundInfo(context.Background(), symbol)
	if err != nil || info == nil {
		logger.Warn("⚠️ 未找到基金信息: %s", symbol)
		info = &FundInfo{Symbol: symbol, Name: "未知"}
	}

	m.mu.Lock()
	m.funds[symbol] = info
	m.mu.Unlock()
	return info
}
