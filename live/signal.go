package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pandaquant/event"
	"pandaquant/logger"
)

// 交易信号类型
const (
	SignalBar      = "0" // K线驱动
	SignalNewDate  = "1" // 交易日开始
	SignalEndDate  = "2" // 交易日结束
	SignalDayStart = "3" // 盘前
	SignalNightEnd = "4" // 夜盘结束
)

// K线信号的最大允许延迟，超时丢弃避免补发堆积撮合
const signalMaxAge = 20 * time.Second

// Signal 调度端发布的交易信号
type Signal struct {
	Type string `json:"type"`
	Date string `json:"date"`
	Hms  string `json:"hms"`
	Ts   int64  `json:"ts"` // 发布时刻 unix 秒
}

// parseSignal 解析并转换为总线事件，丢弃的信号返回 (nil, nil)
func parseSignal(payload string, now time.Time) (*event.Event, error) {
	s := &Signal{}
	if err := json.Unmarshal([]byte(payload), s); err != nil {
		return nil, fmt.Errorf("解析交易信号失败: %w", err)
	}

	if s.Type == SignalBar && s.Ts > 0 {
		if now.Sub(time.Unix(s.Ts, 0)) > signalMaxAge {
			logger.Warn("⚠️ K线信号超时丢弃: %s %s", s.Date, s.Hms)
			return nil, nil
		}
	}

	switch s.Type {
	case SignalBar:
		return event.New(event.SystemHandleBar,
			"date", s.Date, "hms", s.Hms, "trigger", true), nil
	case SignalNewDate:
		return event.New(event.SystemNewDate, "date", s.Date), nil
	case SignalEndDate:
		return event.New(event.SystemEndDate, "date", s.Date), nil
	case SignalDayStart:
		return event.New(event.SystemDayStart, "date", s.Date), nil
	case SignalNightEnd:
		return event.New(event.SystemNightEnd, "date", s.Date), nil
	default:
		return nil, fmt.Errorf("未知信号类型: %q", s.Type)
	}
}

// SignalSubscriber 交易信号订阅器
//
// 订阅 redis 频道上的调度信号并经事件桥送入引擎。
type SignalSubscriber struct {
	client  *redis.Client
	channel string
	bridge  *Bridge
}

// NewSignalSubscriber 创建信号订阅器
func NewSignalSubscriber(client *redis.Client, channel string, bridge *Bridge) *SignalSubscriber {
	return &SignalSubscriber{client: client, channel: channel, bridge: bridge}
}

// Run 订阅并转发信号直到上下文取消
func (s *SignalSubscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("订阅交易信号失败: %w", err)
	}
	logger.Info("📡 交易信号订阅已建立: %s", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("信号频道已关闭: %s", s.channel)
			}
			ev, err := parseSignal(msg.Payload, time.Now())
			if err != nil {
				logger.Warn("⚠️ %v", err)
				continue
			}
			if ev != nil {
				s.bridge.Push(ev)
			}
		}
	}
}
