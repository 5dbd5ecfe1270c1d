package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 运行类型
const (
	RunTypeBacktest = 0 // 回测
	RunTypeLive     = 1 // 实盘
)

// 账户类型
const (
	AccountTypeStock  = 0 // 纯股票
	AccountTypeFuture = 1 // 纯期货
	AccountTypeMixed  = 2 // 股票+期货混合
)

// 基准类型
const (
	StandardTypeStock = 0 // 股票指数基准（SZ/SH 后缀）
	StandardTypeOther = 1 // 其他
	StandardTypeFund  = 2 // 基金基准（OF 后缀）
)

// 默认账号
const (
	DefaultStockAccount  = "8888"
	DefaultFutureAccount = "5588"
	DefaultFundAccount   = "2233"
)

// RunConfig 单次运行参数（回测任务或实盘任务的启动消息）
type RunConfig struct {
	RunID        string `yaml:"run_id" json:"run_id"`               // 运行标识
	StrategyID   string `yaml:"strategy_id" json:"strategy_id"`     // 策略标识
	StrategyName string `yaml:"strategy_name" json:"strategy_name"` // 策略名称

	StartDate string `yaml:"start_date" json:"start_date"` // 开始日期 yyyyMMdd
	EndDate   string `yaml:"end_date" json:"end_date"`     // 结束日期 yyyyMMdd
	Frequency string `yaml:"frequency" json:"frequency"`   // K线频率 1d/1m/5m/15m/30m/1h
	RunType   int    `yaml:"run_type" json:"run_type"`     // 0回测 1实盘
	DateType  int    `yaml:"date_type" json:"date_type"`   // 0交易日推进 1自然日推进

	MatchingType int     `yaml:"matching_type" json:"matching_type"` // 0收盘价撮合 1开盘价撮合
	AccountType  int     `yaml:"account_type" json:"account_type"`   // 0股票 1期货 2混合
	Slippage     float64 `yaml:"slippage" json:"slippage"`           // 股票滑点（价格比例）

	// 期货滑点跳数（最小变动价位倍数），为 0 时沿用 Slippage
	FutureSlippage float64 `yaml:"future_slippage" json:"future_slippage"`

	StockAccount  string `yaml:"stock_account" json:"stock_account"`   // 股票账号
	FutureAccount string `yaml:"future_account" json:"future_account"` // 期货账号
	FundAccount   string `yaml:"fund_account" json:"fund_account"`     // 基金账号

	StartCapital       float64 `yaml:"start_capital" json:"start_capital"`               // 股票初始资金
	StartFutureCapital float64 `yaml:"start_future_capital" json:"start_future_capital"` // 期货初始资金
	StartFundCapital   float64 `yaml:"start_fund_capital" json:"start_fund_capital"`     // 基金初始资金

	StandardSymbol string `yaml:"standard_symbol" json:"standard_symbol"` // 基准合约

	CommissionMultiplier float64 `yaml:"commission_multiplier" json:"commission_multiplier"` // 佣金倍数
	MarginMultiplier     float64 `yaml:"margin_multiplier" json:"margin_multiplier"`         // 保证金倍数

	FundCoverOld    int `yaml:"fund_cover_old" json:"fund_cover_old"`       // 基金下单是否撤销同向旧单
	FundLatencyDate int `yaml:"fund_latency_date" json:"fund_latency_date"` // 基金赎回资金到账天数

	MockID    string `yaml:"mock_id" json:"mock_id"`       // 重启恢复标识（实盘）
	CustomTag string `yaml:"custom_tag" json:"custom_tag"` // 自定义标签（报表与任务列表展示）

	Params map[string]string `yaml:"params" json:"params"` // 策略自定义参数
}

// Param 读取策略参数，缺省时返回 fallback
func (rc *RunConfig) Param(key, fallback string) string {
	if v, ok := rc.Params[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Normalize 补全默认值
func (rc *RunConfig) Normalize() {
	if rc.Frequency == "" {
		rc.Frequency = "1d"
	}
	if rc.StockAccount == "" {
		rc.StockAccount = DefaultStockAccount
	}
	if rc.FutureAccount == "" {
		rc.FutureAccount = DefaultFutureAccount
	}
	if rc.FundAccount == "" {
		rc.FundAccount = DefaultFundAccount
	}
	if rc.StandardSymbol == "" {
		rc.StandardSymbol = "000300.SH"
	}
	if rc.CommissionMultiplier <= 0 {
		rc.CommissionMultiplier = 1
	}
	if rc.MarginMultiplier <= 0 {
		rc.MarginMultiplier = 1
	}
	if rc.FundLatencyDate <= 0 {
		rc.FundLatencyDate = 7
	}
	if rc.FutureSlippage == 0 {
		rc.FutureSlippage = rc.Slippage
	}
}

// StandardType 根据基准合约后缀判断基准类型
func (rc *RunConfig) StandardType() int {
	idx := strings.LastIndex(rc.StandardSymbol, ".")
	if idx < 0 {
		return StandardTypeOther
	}
	switch rc.StandardSymbol[idx+1:] {
	case "SZ", "SH":
		return StandardTypeStock
	case "OF":
		return StandardTypeFund
	default:
		return StandardTypeOther
	}
}

// Config 系统配置
type Config struct {
	Database struct {
		Type         string `yaml:"type"` // sqlite/mysql/postgres
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		LogLevel     string `yaml:"log_level"` // silent/error/warn/info
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Web struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"` // 如 ":8282"
	} `yaml:"web"`

	System struct {
		LogLevel string `yaml:"log_level"`
		Timezone string `yaml:"timezone"` // 如 "Asia/Shanghai"
	} `yaml:"system"`

	Live struct {
		SignalChannel string `yaml:"signal_channel"` // 交易信号订阅频道
		NotifyWebhook string `yaml:"notify_webhook"` // 微信通知 webhook
	} `yaml:"live"`

	Risk     RiskConfig `yaml:"risk"`
	RiskFile string     `yaml:"risk_file"` // 风控配置独立文件（热加载）

	Report struct {
		Dir string `yaml:"dir"` // 报告输出目录
	} `yaml:"report"`
}

// Load 从 yaml 文件加载系统配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "data/pandaquant.db"
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8282"
	}
	if cfg.Live.SignalChannel == "" {
		cfg.Live.SignalChannel = "panda_trade_signal"
	}
	return cfg, nil
}

// LoadRunConfig 从 yaml 文件加载运行参数
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取运行参数失败: %w", err)
	}

	rc := &RunConfig{}
	if err := yaml.Unmarshal(data, rc); err != nil {
		return nil, fmt.Errorf("解析运行参数失败: %w", err)
	}
	rc.Normalize()
	return rc, nil
}
