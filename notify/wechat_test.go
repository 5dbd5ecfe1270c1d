package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pandaquant/event"
)

func TestWxNotifierSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWxNotifier(srv.URL)
	if err := n.Send("爆仓告警"); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if got["msgtype"] != "text" {
		t.Errorf("msgtype = %v", got["msgtype"])
	}
	text, _ := got["text"].(map[string]interface{})
	if text["content"] != "爆仓告警" {
		t.Errorf("content = %v", text["content"])
	}
}

func TestWxNotifierBind(t *testing.T) {
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := event.NewBus()
	NewWxNotifier(srv.URL).Bind(bus)

	bus.Publish(event.New(event.SystemWxNotify, "message", "连接断开"))
	bus.Publish(event.New(event.SystemWxNotify)) // 空消息不发送

	if count != 1 {
		t.Errorf("发送次数 = %d, 期望 1", count)
	}

	// 策略异常同样推送
	bus.Publish(event.New(event.StrategyTradeError, "message", "下单失败"))
	if count != 2 {
		t.Errorf("策略异常未通知: 发送次数 = %d", count)
	}
}

func TestWxNotifierDisabled(t *testing.T) {
	if n := NewWxNotifier(""); n != nil {
		t.Fatal("空 webhook 应返回 nil")
	}
	// nil 通知器 Bind 不挂接
	bus := event.NewBus()
	NewWxNotifier("").Bind(bus)
	bus.Publish(event.New(event.SystemWxNotify, "message", "x"))
}
