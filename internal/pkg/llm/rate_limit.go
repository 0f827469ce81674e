package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency 未配置时同时在途的模型请求数
const DefaultConcurrency = int64(5)

// Limiter 限制同时在途的模型请求数，多个 Generator 可共用
type Limiter struct {
	sem *semaphore.Weighted
}

func NewLimiter(concurrency int64) *Limiter {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Limiter{sem: semaphore.NewWeighted(concurrency)}
}

// Acquire 等待名额，ctx 到期时返回 ctx 的错误
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}
