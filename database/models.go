package database

import "time"

// BacktestRun 回测任务主记录
type BacktestRun struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        string `gorm:"uniqueIndex;size:64"`
	StrategyID   string `gorm:"index;size:64"`
	StrategyName string `gorm:"size:128"`

	StartDate string `gorm:"size:8"`
	EndDate   string `gorm:"size:8"`
	Frequency string `gorm:"size:8"`
	RunType   int
	CustomTag string `gorm:"size:64"`

	Status   int // 0排队 1运行中 2完成 -1失败
	Progress float64
	Message  string `gorm:"size:512"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BacktestRun) TableName() string { return "panda_backtest" }

// BacktestAccount 账户逐日快照
type BacktestAccount struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index:idx_acct_run_date;size:64"`
	TradeDate string `gorm:"index:idx_acct_run_date;size:8"`
	AccountID string `gorm:"size:32"`
	Class     int

	TotalProfit   float64
	Available     float64
	MarketValue   float64
	FrozenCapital float64
	Margin        float64
	HoldingPnl    float64
	RealizedPnl   float64
	Cost          float64
	DailyPnl      float64
	AddProfit     float64

	CreatedAt time.Time
}

func (BacktestAccount) TableName() string { return "panda_backtest_account" }

// BacktestPosition 持仓逐日快照
type BacktestPosition struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index:idx_pos_run_date;size:64"`
	TradeDate string `gorm:"index:idx_pos_run_date;size:8"`
	AccountID string `gorm:"size:32"`
	Symbol    string `gorm:"size:32"`
	Class     int

	Direction   int // 0多 1空（期货）
	Position    float64
	Sellable    float64
	HoldPrice   float64
	LastPrice   float64
	MarketValue float64
	Margin      float64
	HoldingPnl  float64

	CreatedAt time.Time
}

func (BacktestPosition) TableName() string { return "panda_backtest_position" }

// BacktestTrade 成交流水
type BacktestTrade struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index;size:64"`
	TradeID   string `gorm:"size:32"`
	OrderID   string `gorm:"size:32"`
	AccountID string `gorm:"size:32"`
	Symbol    string `gorm:"size:32"`
	Class     int

	Side   int
	Effect int
	Price  float64
	Volume int
	Amount float64
	Shares float64
	Cost   float64

	TradeDate string `gorm:"size:8"`
	Hms       string `gorm:"size:6"`

	CreatedAt time.Time
}

func (BacktestTrade) TableName() string { return "panda_backtest_trade" }

// BacktestProfit 组合绩效逐日序列
type BacktestProfit struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index:idx_profit_run_date;size:64"`
	TradeDate string `gorm:"index:idx_profit_run_date;size:8"`

	TotalProfit    float64
	DailyPnl       float64
	AddProfit      float64
	DailyReturn    float64
	TotalReturn    float64
	StandardReturn float64

	CreatedAt time.Time
}

func (BacktestProfit) TableName() string { return "panda_backtest_profit" }

// StrategyLog 策略运行日志
type StrategyLog struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index;size:64"`
	Level   string `gorm:"size:8"`
	Message string `gorm:"size:2048"`

	CreatedAt time.Time
}

func (StrategyLog) TableName() string { return "panda_user_strategy_log" }

// FutureInfoRecord 期货合约信息
type FutureInfoRecord struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"uniqueIndex;size:32"`
	Name   string `gorm:"size:64"`

	ContractMul      float64
	MinPriceChg      float64
	LongMargin       float64 // long_margin，百分数
	ShortMargin      float64 // short_margin，百分数
	Margin           float64 // margin，百分数
	FirstTransMargin float64 // ftfirsttransmargin，百分数
	LimitRate        float64
	LastTradeDate    string `gorm:"size:8"`
}

func (FutureInfoRecord) TableName() string { return "future_info" }

// StockInfoRecord 股票合约信息
type StockInfoRecord struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"uniqueIndex;size:32"`
	Name   string `gorm:"size:64"`
}

func (StockInfoRecord) TableName() string { return "stock_info" }

// FundInfoRecord 基金合约信息
type FundInfoRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Symbol   string `gorm:"uniqueIndex;size:32"`
	Name     string `gorm:"size:64"`
	FundType string `gorm:"size:16"`
}

func (FundInfoRecord) TableName() string { return "fund_info" }

// MarketBar 行情K线（日线与分钟线共表，日线 hms 为空）
type MarketBar struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"index:idx_bar,priority:1;size:32"`
	TradeDate string `gorm:"index:idx_bar,priority:2;size:8"`
	Hms       string `gorm:"index:idx_bar,priority:3;size:6"`
	Class     int

	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Turnover float64

	Settle     float64
	PrevSettle float64
	LimitUp    float64
	LimitDown  float64

	OpenInterest float64
	UnitNav      float64
	Suspended    bool
}

func (MarketBar) TableName() string { return "future_market" }

// TradeDateRecord 交易日历
type TradeDateRecord struct {
	Date string `gorm:"primaryKey;size:8"`
}

func (TradeDateRecord) TableName() string { return "trade_calendar" }

// StockDividendRecord 股票分红除权记录
type StockDividendRecord struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"index:idx_div,priority:1;size:32"`
	ExDate string `gorm:"index:idx_div,priority:2;size:8"`

	CashPerShare float64
	ShareRatio   float64
	SplitRatio   float64
}

func (StockDividendRecord) TableName() string { return "stock_dividends" }

// FundFeeRecord 基金费率档位
type FundFeeRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Symbol   string `gorm:"index;size:32"` // 为空表示类别默认档
	FundType string `gorm:"index;size:16"`
	Side     int
	Low      float64
	High     float64
	Rate     float64
}

func (FundFeeRecord) TableName() string { return "fund_fee" }

// FutureFeeRecord 期货手续费率
type FutureFeeRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Symbol      string `gorm:"uniqueIndex;size:32"`
	CostType    int
	OpenRate    float64
	CloseRate   float64
	CloseTdRate float64
}

func (FutureFeeRecord) TableName() string { return "future_fee" }

// WorkflowRecord 任务流水
type WorkflowRecord struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index;size:64"`
	Step    string `gorm:"size:64"`
	Status  int
	Message string `gorm:"size:512"`

	CreatedAt time.Time
}

func (WorkflowRecord) TableName() string { return "workflow" }
