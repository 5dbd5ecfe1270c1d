package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"pandaquant/logger"
)

// RiskConfig 风控配置
type RiskConfig struct {
	Enabled bool `yaml:"enabled"`

	MaxOrderVolume   int     `yaml:"max_order_volume"`   // 单笔最大下单数量（0不限制）
	MaxDailyOrders   int     `yaml:"max_daily_orders"`   // 单日最大报单次数（0不限制）
	MaxPositionRatio float64 `yaml:"max_position_ratio"` // 单合约最大持仓市值占比（0不限制）
	BannedSymbols    []string `yaml:"banned_symbols"`    // 禁止交易合约
}

// IsBanned 判断合约是否在禁买名单中
func (rc *RiskConfig) IsBanned(symbol string) bool {
	for _, s := range rc.BannedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// RiskWatcher 风控配置热加载
//
// 监听独立风控文件的写入事件，重新解析后通过回调下发。
type RiskWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*RiskConfig)

	mu      sync.RWMutex
	current *RiskConfig
	stopCh  chan struct{}
}

// NewRiskWatcher 创建风控配置热加载器
func NewRiskWatcher(path string, initial *RiskConfig, onReload func(*RiskConfig)) (*RiskWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}

	// 监听目录，避免编辑器重命名替换导致 watch 失效
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("监听风控配置目录失败: %w", err)
	}

	rw := &RiskWatcher{
		path:     path,
		watcher:  w,
		onReload: onReload,
		current:  initial,
		stopCh:   make(chan struct{}),
	}
	go rw.loop()
	logger.Info("🛡️ 风控配置热加载已启动: %s", path)
	return rw, nil
}

// Current 获取当前风控配置
func (rw *RiskWatcher) Current() *RiskConfig {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.current
}

// Stop 停止监听
func (rw *RiskWatcher) Stop() {
	close(rw.stopCh)
	rw.watcher.Close()
}

// loop 事件循环
func (rw *RiskWatcher) loop() {
	for {
		select {
		case <-rw.stopCh:
			return
		case ev, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(rw.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rw.reload()
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("⚠️ 风控配置监听错误: %v", err)
		}
	}
}

// reload 重新加载风控配置
func (rw *RiskWatcher) reload() {
	cfg, err := LoadRiskConfig(rw.path)
	if err != nil {
		logger.Error("❌ 风控配置重载失败: %v", err)
		return
	}

	rw.mu.Lock()
	rw.current = cfg
	rw.mu.Unlock()

	logger.Info("🔄 风控配置已重载: enabled=%v", cfg.Enabled)
	if rw.onReload != nil {
		rw.onReload(cfg)
	}
}

// LoadRiskConfig 从 yaml 文件加载风控配置
func LoadRiskConfig(path string) (*RiskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取风控配置失败: %w", err)
	}
	cfg := &RiskConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析风控配置失败: %w", err)
	}
	return cfg, nil
}
