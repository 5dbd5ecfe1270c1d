package live

import (
	"context"

	"pandaquant/event"
	"pandaquant/logger"
)

// Bridge 柜台回报与信号到事件总线的先进先出桥
//
// 总线处理在单协程上同步执行，柜台回调与 redis 订阅在各自协程
// 产生事件，经缓冲通道串行化后由 Run 协程依次发布，保证回报
// 次序与到达次序一致。
type Bridge struct {
	bus *event.Bus
	ch  chan *event.Event
}

// NewBridge 创建事件桥
func NewBridge(bus *event.Bus, size int) *Bridge {
	if size <= 0 {
		size = 1024
	}
	return &Bridge{bus: bus, ch: make(chan *event.Event, size)}
}

// Push 投递事件，缓冲满时丢弃并告警
func (b *Bridge) Push(ev *event.Event) {
	select {
	case b.ch <- ev:
	default:
		logger.Warn("⚠️ 事件桥缓冲已满, 丢弃: %s", ev.Name)
	}
}

// Run 串行发布事件直到上下文取消
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			b.bus.Publish(ev)
		}
	}
}

// Pending 当前积压事件数
func (b *Bridge) Pending() int {
	return len(b.ch)
}
