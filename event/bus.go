package event

import (
	"fmt"
	"sync"

	"pandaquant/logger"
)

// Handler 事件处理函数
type Handler func(*Event)

// Bus 事件总线
//
// 同步有序派发：Publish 在调用方协程内按注册顺序依次执行处理函数，
// 全部返回后 Publish 才返回。撮合、账户、策略之间的先后关系完全由
// 注册顺序决定，风控通过 AddFront 插队到链路最前。
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventName][]Handler
	observer func(*Event) // 每个事件派发完成后回调（运行指标用）
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventName][]Handler),
	}
}

// Register 注册处理函数（追加到链尾）
func (b *Bus) Register(name EventName, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// AddFront 注册处理函数（插入链首，风控拦截用）
func (b *Bus) AddFront(name EventName, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append([]Handler{h}, b.handlers[name]...)
}

// SetObserver 设置派发观察器
func (b *Bus) SetObserver(fn func(*Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = fn
}

// HandlerCount 返回主题当前的处理函数数量
func (b *Bus) HandlerCount(name EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Publish 发布事件，同步执行所有处理函数
//
// 单个处理函数 panic 不会中断链路：恢复后记录错误并改发
// StrategyTradeError，错误主题自身的 panic 只记录日志，避免递归。
func (b *Bus) Publish(ev *Event) {
	if ev == nil {
		return
	}

	b.mu.RLock()
	chain := make([]Handler, len(b.handlers[ev.Name]))
	copy(chain, b.handlers[ev.Name])
	observer := b.observer
	b.mu.RUnlock()

	for _, h := range chain {
		b.safeCall(ev, h)
	}
	if observer != nil {
		observer(ev)
	}
}

// safeCall 执行单个处理函数并吸收 panic
func (b *Bus) safeCall(ev *Event, h Handler) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprintf("事件处理异常，主题：%s，原因：%v", ev.Name, r)
		logger.Error("❌ %s", msg)
		if ev.Name != StrategyTradeError {
			b.Publish(New(StrategyTradeError, "message", msg))
		}
	}()
	h(ev)
}
