package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pandaquant/config"
	"pandaquant/database"
	"pandaquant/engine"
	"pandaquant/live"
	"pandaquant/logger"
	"pandaquant/metrics"
	"pandaquant/notify"
	"pandaquant/report"
	"pandaquant/restore"
	"pandaquant/strategy"
	"pandaquant/web"
)

// Version 版本号
var Version = "1.2.0"

// engineSet 进程内活跃的引擎实例（风控热加载下发用）
type engineSet struct {
	mu sync.Mutex
	m  map[string]*engine.Engine
}

func (s *engineSet) add(runID string, e *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[runID] = e
}

func (s *engineSet) remove(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, runID)
}

func (s *engineSet) each(fn func(e *engine.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.m {
		fn(e)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "系统配置文件")
	runPath := flag.String("run", "", "运行参数文件，指定后执行单次回测")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("❌ 加载配置失败: %v", err)
	}

	if cfg.System.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.System.Timezone); err != nil {
			logger.Warn("⚠️ 加载时区 %s 失败: %v", cfg.System.Timezone, err)
		} else {
			logger.SetLocation(loc)
		}
	}
	logger.SetLevel(logger.ParseLogLevel(cfg.System.LogLevel))
	logger.Info("🚀 pandaquant 启动, 版本 %s", Version)

	store, err := database.New(&database.Config{
		Type:            cfg.Database.Type,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Hour,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal("❌ 初始化数据库失败: %v", err)
	}
	defer store.Close()
	logger.Info("✅ 数据库已就绪: %s", cfg.Database.Type)

	// 策略日志落库，按当前活跃运行归档
	var activeRun atomic.Value
	activeRun.Store("")
	logger.InitLogStorage(func(level, message string) {
		runID, _ := activeRun.Load().(string)
		if runID == "" {
			return
		}
		store.SaveStrategyLog(context.Background(), runID, level, message)
	})

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		logger.Info("✅ redis 已连接: %s", cfg.Redis.Addr)
	}

	collector := metrics.NewCollector(nil)
	engines := &engineSet{m: make(map[string]*engine.Engine)}

	// 风控热加载：独立文件变化时下发到所有活跃引擎
	if cfg.RiskFile != "" {
		watcher, err := config.NewRiskWatcher(cfg.RiskFile, &cfg.Risk, func(rc *config.RiskConfig) {
			cfg.Risk = *rc
			engines.each(func(e *engine.Engine) {
				e.RiskManager().Update(rc)
			})
		})
		if err != nil {
			logger.Warn("⚠️ 风控热加载未启用: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	launch := func(run *config.RunConfig) error {
		stra, err := strategy.Create(run.StrategyName)
		if err != nil {
			store.UpdateRunStatus(rootCtx, run.RunID, database.RunStatusFailed, 0, err.Error())
			return err
		}

		eng, err := engine.New(cfg, run, store, stra)
		if err != nil {
			store.UpdateRunStatus(rootCtx, run.RunID, database.RunStatusFailed, 0, err.Error())
			return err
		}
		eng.AttachMetrics(collector)
		if rdb != nil {
			eng.AttachRestore(restore.NewManager(rdb, run.RunID))
		}
		notify.NewWxNotifier(cfg.Live.NotifyWebhook).Bind(eng.Bus())

		engines.add(run.RunID, eng)
		defer engines.remove(run.RunID)
		activeRun.Store(run.RunID)

		if run.RunType == config.RunTypeLive {
			return runLive(rootCtx, cfg, rdb, eng)
		}

		if err := eng.Run(rootCtx); err != nil {
			return err
		}
		exportReport(rootCtx, cfg, store, run, eng)
		return nil
	}

	if *runPath != "" {
		run, err := config.LoadRunConfig(*runPath)
		if err != nil {
			logger.Fatal("❌ %v", err)
		}
		store.SaveRun(rootCtx, &database.BacktestRun{
			RunID:        run.RunID,
			StrategyID:   run.StrategyID,
			StrategyName: run.StrategyName,
			StartDate:    run.StartDate,
			EndDate:      run.EndDate,
			Frequency:    run.Frequency,
			RunType:      run.RunType,
			CustomTag:    run.CustomTag,
			Status:       database.RunStatusQueued,
		})
		if err := launch(run); err != nil {
			logger.Fatal("❌ 运行失败: %v", err)
		}
		if !cfg.Web.Enabled {
			logger.Close()
			return
		}
	}

	if cfg.Web.Enabled {
		srv := web.NewServer(cfg, store, launch)
		srv.Hub().Attach()
		go func() {
			if err := srv.Run(); err != nil {
				logger.Fatal("❌ 控制面启动失败: %v", err)
			}
		}()
	} else if *runPath == "" {
		logger.Fatal("❌ 未指定 -run 且控制面未启用, 无事可做")
	}

	<-rootCtx.Done()
	logger.Info("🛑 收到退出信号, 正在关闭")
	logger.Close()
}

// runLive 实盘模式：信号订阅与事件桥驱动引擎
func runLive(ctx context.Context, cfg *config.Config, rdb *redis.Client, eng *engine.Engine) error {
	if rdb == nil {
		logger.Fatal("❌ 实盘模式需要配置 redis")
	}

	bridge := live.NewBridge(eng.Bus(), 0)
	go bridge.Run(ctx)

	sub := live.NewSignalSubscriber(rdb, cfg.Live.SignalChannel, bridge)
	go func() {
		if err := sub.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("❌ 信号订阅退出: %v", err)
		}
	}()

	return eng.RunLive(ctx)
}

// exportReport 回测结束后计算绩效并导出报告
func exportReport(ctx context.Context, cfg *config.Config, store *database.Store, run *config.RunConfig, eng *engine.Engine) {
	trades, err := store.Trades(ctx, run.RunID)
	if err != nil {
		logger.Warn("⚠️ 查询成交流水失败: %v", err)
	}

	profits := eng.Results().Profits
	summary := report.Compute(run, profits, len(trades))
	path, err := report.Export(cfg.Report.Dir, summary, profits, trades)
	if err != nil {
		logger.Warn("⚠️ 导出回测报告失败: %v", err)
		return
	}
	logger.Info("📄 回测报告: %s 年化 %.4f%% 夏普 %.3f 最大回撤 %.4f%%",
		path, summary.AnnualReturn*100, summary.Sharpe, summary.MaxDrawdown*100)
}
