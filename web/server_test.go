package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pandaquant/config"
	"pandaquant/database"
)

func newTestServer(t *testing.T) (*Server, *database.Store) {
	t.Helper()
	store, err := database.New(&database.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Web.Listen = ":0"
	return NewServer(cfg, store, nil), store
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest/missing", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("状态码 = %d, 期望 404", w.Code)
	}
}

func TestLaunchAndQuery(t *testing.T) {
	var mu sync.Mutex
	launched := ""
	store, err := database.New(&database.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	srv := NewServer(cfg, store, func(run *config.RunConfig) error {
		mu.Lock()
		launched = run.RunID
		mu.Unlock()
		return nil
	})

	body := `{"run_id":"bt-9","strategy_name":"双均线","start_date":"20200106","end_date":"20200110"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("状态码 = %d, 响应 %s", w.Code, w.Body.String())
	}

	// 启动回调为异步
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		got := launched
		mu.Unlock()
		if got == "bt-9" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("启动回调未触发")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// 重复提交冲突
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("重复提交状态码 = %d, 期望 409", w.Code)
	}

	// 状态查询
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/backtest/bt-9", nil)
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("查询状态码 = %d", w.Code)
	}
	var rec database.BacktestRun
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if rec.StrategyName != "双均线" || rec.Status != database.RunStatusQueued {
		t.Errorf("任务记录 = %+v", rec)
	}
}

func TestLaunchBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(`{"run_id":""}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, 期望 400", w.Code)
	}
}

func TestLogHubPushNoClients(t *testing.T) {
	hub := NewLogHub()
	// 无连接时推送不阻塞
	for i := 0; i < 1000; i++ {
		hub.Push("INFO", "测试日志")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("连接数 = %d", hub.ClientCount())
	}
}
