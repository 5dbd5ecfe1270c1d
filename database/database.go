package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 回测任务状态
const (
	RunStatusQueued  = 0
	RunStatusRunning = 1
	RunStatusDone    = 2
	RunStatusFailed  = -1
)

// Config 数据库配置
type Config struct {
	Type            string // sqlite, postgres, mysql
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string // silent, error, warn, info
}

// Store 回测与行情存储
type Store struct {
	db *gorm.DB
}

// New 根据配置创建存储实例
func New(config *Config) (*Store, error) {
	var dialector gorm.Dialector
	switch config.Type {
	case "sqlite":
		dialector = sqlite.Open(config.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(config.DSN)
	case "mysql":
		dialector = mysql.Open(config.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", config.Type)
	}

	logLevel := gormlogger.Silent
	switch config.LogLevel {
	case "error":
		logLevel = gormlogger.Error
	case "warn":
		logLevel = gormlogger.Warn
	case "info":
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(
		&BacktestRun{},
		&BacktestAccount{},
		&BacktestPosition{},
		&BacktestTrade{},
		&BacktestProfit{},
		&StrategyLog{},
		&FutureInfoRecord{},
		&StockInfoRecord{},
		&FundInfoRecord{},
		&MarketBar{},
		&TradeDateRecord{},
		&StockDividendRecord{},
		&FundFeeRecord{},
		&FutureFeeRecord{},
		&WorkflowRecord{},
	); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &Store{db: db}, nil
}

// DB 暴露底层连接（web 层查询用）
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close 关闭数据库
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun 登记回测任务
func (s *Store) SaveRun(ctx context.Context, run *BacktestRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

// UpdateRunStatus 更新任务状态与进度
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status int, progress float64, message string) error {
	return s.db.WithContext(ctx).Model(&BacktestRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]interface{}{
			"status":   status,
			"progress": progress,
			"message":  message,
		}).Error
}

// GetRun 查询回测任务
func (s *Store) GetRun(ctx context.Context, runID string) (*BacktestRun, error) {
	var run BacktestRun
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &run, err
}

// SaveAccountSnapshots 批量保存账户逐日快照
func (s *Store) SaveAccountSnapshots(ctx context.Context, rows []*BacktestAccount) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(rows).Error
}

// SavePositionSnapshots 批量保存持仓逐日快照
func (s *Store) SavePositionSnapshots(ctx context.Context, rows []*BacktestPosition) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(rows).Error
}

// SaveTrade 保存成交流水
func (s *Store) SaveTrade(ctx context.Context, row *BacktestTrade) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// SaveProfit 保存组合绩效点
func (s *Store) SaveProfit(ctx context.Context, row *BacktestProfit) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// Profits 按交易日升序取绩效序列
func (s *Store) Profits(ctx context.Context, runID string) ([]*BacktestProfit, error) {
	var rows []*BacktestProfit
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("trade_date ASC").
		Find(&rows).Error
	return rows, err
}

// Trades 取任务的全部成交流水
func (s *Store) Trades(ctx context.Context, runID string) ([]*BacktestTrade, error) {
	var rows []*BacktestTrade
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("trade_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// SaveStrategyLog 保存策略日志
func (s *Store) SaveStrategyLog(ctx context.Context, runID, level, message string) error {
	return s.db.WithContext(ctx).Create(&StrategyLog{
		RunID: runID, Level: level, Message: message,
	}).Error
}

// StrategyLogs 取策略日志（倒序分页）
func (s *Store) StrategyLogs(ctx context.Context, runID string, limit, offset int) ([]*StrategyLog, error) {
	var rows []*StrategyLog
	query := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&rows).Error
	return rows, err
}

// SaveWorkflow 记录任务流水
func (s *Store) SaveWorkflow(ctx context.Context, runID, step string, status int, message string) error {
	return s.db.WithContext(ctx).Create(&WorkflowRecord{
		RunID: runID, Step: step, Status: status, Message: message,
	}).Error
}
