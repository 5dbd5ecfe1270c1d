package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Factory 策略工厂，每次运行创建独立实例
type Factory func() Strategy

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册策略工厂，重名直接覆盖
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Create 按名称创建策略实例
func Create(name string) (Strategy, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("策略未注册: %s", name)
	}
	return factory(), nil
}

// Names 已注册的策略名列表
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
