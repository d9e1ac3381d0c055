// Package signal 提供进程内事件总线
// 邀请流程的各个阶段通过事件广播给订阅者
// 订阅者可以否决正在进行的操作
package signal

import (
	"sync"

	"inviteme/backend/internal/domain"
)

// Event 事件类型
type Event string

const (
	// ConfirmationWillBeRequested 即将向提交者发送确认邮件
	// 订阅者返回 false 可以否决本次提交
	ConfirmationWillBeRequested Event = "confirmation_will_be_requested"

	// ConfirmationRequested 确认邮件已发送
	ConfirmationRequested Event = "confirmation_requested"

	// ConfirmationReceived 提交者点击了确认链接
	// 订阅者返回 false 可以否决本次确认
	ConfirmationReceived Event = "confirmation_received"
)

// Payload 事件负载
type Payload struct {
	Submission domain.Submission
	RemoteAddr string
}

// Receiver 事件接收器
// 返回 false 表示否决该操作（仅对可否决事件生效）
type Receiver func(event Event, payload Payload) bool

// Bus 进程内事件总线
// 订阅在启动阶段完成，发布阶段只读，因此读锁即可
type Bus struct {
	mu        sync.RWMutex
	receivers map[Event][]Receiver
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		receivers: make(map[Event][]Receiver),
	}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(event Event, receiver Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[event] = append(b.receivers[event], receiver)
}

// Publish 发布事件并收集否决结果
// 所有接收器都会被调用，任意一个返回 false 则整体返回 false
func (b *Bus) Publish(event Event, payload Payload) bool {
	b.mu.RLock()
	receivers := b.receivers[event]
	b.mu.RUnlock()

	allowed := true
	for _, receiver := range receivers {
		if !receiver(event, payload) {
			allowed = false
		}
	}
	return allowed
}
