package live

import (
	"context"
	"fmt"
	"time"

	"pandaquant/event"
	"pandaquant/logger"
)

// 查询重试参数
const (
	queryMaxRetries   = 5
	queryRetryBackoff = time.Second
)

// retry 带退避的重试，全部失败返回最后一次错误
func retry(ctx context.Context, name string, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for i := 0; i < queryMaxRetries; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		logger.Warn("⚠️ %s 失败(第 %d 次): %v", name, i+1, err)
		if i == queryMaxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s 重试 %d 次仍失败: %w", name, queryMaxRetries, err)
}

// QueryLoop 柜台周期查询
//
// 定时拉取资金、持仓与在途报单，与本地账本对账由适配实现完成。
type QueryLoop struct {
	adapter  TradeAdapter
	interval time.Duration
}

// NewQueryLoop 创建查询循环
func NewQueryLoop(adapter TradeAdapter, interval time.Duration) *QueryLoop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &QueryLoop{adapter: adapter, interval: interval}
}

// Run 周期查询直到上下文取消
func (q *QueryLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !q.adapter.IsConnected() {
				continue
			}
			q.QueryOnce(ctx)
		}
	}
}

// QueryOnce 执行一轮查询
func (q *QueryLoop) QueryOnce(ctx context.Context) {
	if err := retry(ctx, "查询资金账户", queryRetryBackoff, q.adapter.QueryAccount); err != nil {
		logger.Error("❌ %v", err)
	}
	if err := retry(ctx, "查询持仓", queryRetryBackoff, q.adapter.QueryPositions); err != nil {
		logger.Error("❌ %v", err)
	}
	if err := retry(ctx, "查询在途报单", queryRetryBackoff, q.adapter.QueryOrders); err != nil {
		logger.Error("❌ %v", err)
	}
}

// Watchdog 交易连接看门狗
//
// 周期探测连接状态，断开时重连并鉴权，重连失败经事件桥发微信
// 通知。
type Watchdog struct {
	adapter  TradeAdapter
	bridge   *Bridge
	interval time.Duration
}

// NewWatchdog 创建看门狗
func NewWatchdog(adapter TradeAdapter, bridge *Bridge, interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watchdog{adapter: adapter, bridge: bridge, interval: interval}
}

// Run 周期巡检直到上下文取消
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.adapter.IsConnected() {
				continue
			}
			w.Reconnect(ctx)
		}
	}
}

// Reconnect 执行一次重连
func (w *Watchdog) Reconnect(ctx context.Context) {
	logger.Warn("⚠️ 交易连接断开, 尝试重连")
	if err := retry(ctx, "柜台重连", queryRetryBackoff, w.adapter.Connect); err != nil {
		w.notify(fmt.Sprintf("交易连接重连失败: %v", err))
		return
	}
	if err := retry(ctx, "柜台鉴权", queryRetryBackoff, w.adapter.Auth); err != nil {
		w.notify(fmt.Sprintf("柜台鉴权失败: %v", err))
		return
	}
	logger.Info("🔌 交易连接已恢复")
}

func (w *Watchdog) notify(message string) {
	logger.Error("❌ %s", message)
	if w.bridge != nil {
		w.bridge.Push(event.New(event.SystemWxNotify, "message", message))
	}
}
