package mailer

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// PooledTransport 限制并发 SMTP 会话数量的传输包装器
//
// 多数 SMTP 服务商对并发连接数有硬性限制，超限会直接拒绝会话。
// 超出并发上限的发送请求会阻塞等待，而不是失败。
type PooledTransport struct {
	inner Transport
	sem   *semaphore.Weighted
}

// NewPooledTransport 包装 transport，最多允许 maxConcurrent 个并发发送
func NewPooledTransport(inner Transport, maxConcurrent int64) *PooledTransport {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &PooledTransport{
		inner: inner,
		sem:   semaphore.NewWeighted(maxConcurrent),
	}
}

// Send 获取并发配额后转发给内层传输
func (t *PooledTransport) Send(ctx context.Context, msg *Message) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer t.sem.Release(1)

	return t.inner.Send(ctx, msg)
}
