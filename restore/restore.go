package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pandaquant/account"
	"pandaquant/logger"
	"pandaquant/order"
)

// 快照哈希字段
const (
	fieldAccounts    = "accounts"
	fieldStockBook   = "stock_orders"
	fieldFutureBook  = "future_orders"
	fieldFundBook    = "fund_orders"
	fieldAttrs       = "strategy_attrs"
	fieldTradeDate   = "trade_date"
	fieldSnapshotAt  = "snapshot_at"
	snapshotLifetime = 7 * 24 * time.Hour
)

// Manager 运行现场快照
//
// 实盘进程重启后从 redis 哈希恢复账户、在途报单与策略属性。
// 每个运行标识一个哈希键，日终快照覆盖写入。
type Manager struct {
	client *redis.Client
	runID  string
}

// NewManager 创建快照管理器
func NewManager(client *redis.Client, runID string) *Manager {
	return &Manager{client: client, runID: runID}
}

func (m *Manager) key() string {
	return fmt.Sprintf("restore_data:%s", m.runID)
}

// Save 写入现场快照
func (m *Manager) Save(ctx context.Context, results *account.AllResult,
	stockBook, futureBook, fundBook *order.Book, attrs []byte, tradeDate string) error {

	accounts, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("序列化账户失败: %w", err)
	}

	stock, err := stockBook.Snapshot()
	if err != nil {
		return fmt.Errorf("序列化股票报单失败: %w", err)
	}
	future, err := futureBook.Snapshot()
	if err != nil {
		return fmt.Errorf("序列化期货报单失败: %w", err)
	}
	fund, err := fundBook.Snapshot()
	if err != nil {
		return fmt.Errorf("序列化基金报单失败: %w", err)
	}

	fields := map[string]interface{}{
		fieldAccounts:   string(accounts),
		fieldStockBook:  string(stock),
		fieldFutureBook: string(future),
		fieldFundBook:   string(fund),
		fieldAttrs:      string(attrs),
		fieldTradeDate:  tradeDate,
		fieldSnapshotAt: time.Now().Format(time.RFC3339),
	}
	if err := m.client.HSet(ctx, m.key(), fields).Err(); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}
	if err := m.client.Expire(ctx, m.key(), snapshotLifetime).Err(); err != nil {
		logger.Warn("⚠️ 设置快照过期时间失败: %v", err)
	}

	logger.Info("💾 运行现场快照已保存: %s, 交易日 %s", m.runID, tradeDate)
	return nil
}

// Snapshot 恢复现场数据
type Snapshot struct {
	Results    *account.AllResult
	StockBook  []byte
	FutureBook []byte
	FundBook   []byte
	Attrs      []byte
	TradeDate  string
}

// Load 读取现场快照，无快照返回 (nil, nil)
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	fields, err := m.client.HGetAll(ctx, m.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	results := account.NewAllResult()
	if raw, ok := fields[fieldAccounts]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), results); err != nil {
			return nil, fmt.Errorf("解析账户快照失败: %w", err)
		}
	}

	snap := &Snapshot{
		Results:    results,
		StockBook:  []byte(fields[fieldStockBook]),
		FutureBook: []byte(fields[fieldFutureBook]),
		FundBook:   []byte(fields[fieldFundBook]),
		Attrs:      []byte(fields[fieldAttrs]),
		TradeDate:  fields[fieldTradeDate],
	}
	logger.Info("🔄 运行现场快照已加载: %s, 交易日 %s", m.runID, snap.TradeDate)
	return snap, nil
}

// Clear 删除快照（任务正常结束时调用）
func (m *Manager) Clear(ctx context.Context) error {
	return m.client.Del(ctx, m.key()).Err()
}
