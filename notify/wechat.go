package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pandaquant/event"
	"pandaquant/logger"
)

// WxNotifier 企业微信 webhook 通知器
//
// 订阅 SYSTEM_WX_NOTIFY 主题，把消息推送到群机器人。发送失败只
// 记日志，不影响交易链路。
type WxNotifier struct {
	webhook string
	client  *http.Client
}

// NewWxNotifier 创建通知器，webhook 为空返回 nil（通知关闭）
func NewWxNotifier(webhook string) *WxNotifier {
	if webhook == "" {
		return nil
	}
	return &WxNotifier{
		webhook: webhook,
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

// Bind 挂接到事件总线
func (n *WxNotifier) Bind(bus *event.Bus) {
	if n == nil {
		return
	}
	bus.Register(event.SystemWxNotify, func(ev *event.Event) {
		n.send(ev.String("message"))
	})
	bus.Register(event.StrategyTradeError, func(ev *event.Event) {
		if msg := ev.String("message"); msg != "" {
			n.send("策略异常: " + msg)
		}
	})
}

func (n *WxNotifier) send(msg string) {
	if msg == "" {
		return
	}
	if err := n.Send(msg); err != nil {
		logger.Warn("⚠️ 微信通知发送失败: %v", err)
	}
}

// Send 发送文本消息
func (n *WxNotifier) Send(message string) error {
	payload := map[string]interface{}{
		"msgtype": "text",
		"text": map[string]string{
			"content": message,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhook, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook 返回错误: %d", resp.StatusCode)
	}
	return nil
}
