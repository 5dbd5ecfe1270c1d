package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pandaquant/config"
	"pandaquant/database"
	"pandaquant/logger"
)

// LaunchFunc 回测任务启动回调（由 main 注入，解开与 engine 的依赖）
type LaunchFunc func(run *config.RunConfig) error

// Server 控制面服务
//
// 提供回测任务的启动与查询接口、prometheus 指标端点、日志
// WebSocket 推送。
type Server struct {
	cfg    *config.Config
	store  *database.Store
	launch LaunchFunc
	hub    *LogHub
	router *gin.Engine
}

// NewServer 创建控制面服务
func NewServer(cfg *config.Config, store *database.Store, launch LaunchFunc) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		store:  store,
		launch: launch,
		hub:    NewLogHub(),
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

// Hub 日志推送中心
func (s *Server) Hub() *LogHub {
	return s.hub
}

// Router 暴露路由（测试用）
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run 启动监听
func (s *Server) Run() error {
	logger.Info("🌐 控制面已启动: %s", s.cfg.Web.Listen)
	return s.router.Run(s.cfg.Web.Listen)
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	{
		api.POST("/backtest", s.launchBacktest)
		api.GET("/backtest/:run_id", s.getRun)
		api.GET("/backtest/:run_id/profits", s.getProfits)
		api.GET("/backtest/:run_id/trades", s.getTrades)
		api.GET("/backtest/:run_id/logs", s.getLogs)
	}
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws/logs", s.hub.handleWs)
}

// launchBacktest 登记并启动回测任务
func (s *Server) launchBacktest(c *gin.Context) {
	run := &config.RunConfig{}
	if err := c.ShouldBindJSON(run); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数解析失败: " + err.Error()})
		return
	}
	run.Normalize()
	if run.RunID == "" || run.StartDate == "" || run.EndDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id、start_date、end_date 不能为空"})
		return
	}

	ctx := c.Request.Context()
	if existing, err := s.store.GetRun(ctx, run.RunID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "任务已存在: " + run.RunID})
		return
	}

	if err := s.store.SaveRun(ctx, &database.BacktestRun{
		RunID:        run.RunID,
		StrategyID:   run.StrategyID,
		StrategyName: run.StrategyName,
		StartDate:    run.StartDate,
		EndDate:      run.EndDate,
		Frequency:    run.Frequency,
		RunType:      run.RunType,
		CustomTag:    run.CustomTag,
		Status:       database.RunStatusQueued,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.launch != nil {
		go func() {
			if err := s.launch(run); err != nil {
				logger.Error("❌ 回测任务失败: %s, %v", run.RunID, err)
			}
		}()
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": run.RunID, "status": database.RunStatusQueued})
}

// getRun 查询任务状态与进度
func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// getProfits 查询每日绩效序列
func (s *Server) getProfits(c *gin.Context) {
	rows, err := s.store.Profits(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// getTrades 查询成交流水
func (s *Server) getTrades(c *gin.Context) {
	rows, err := s.store.Trades(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// getLogs 查询策略日志（倒序分页）
func (s *Server) getLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := s.store.StrategyLogs(c.Request.Context(), c.Param("run_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}
