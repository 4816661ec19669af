package ratelimit

import (
	"sync"
	"time"

	"eduplat/pkg/errors"
)

// 默认限流参数：每个操作人每60秒窗口内最多20次变更
const (
	DefaultLimit  = 20
	DefaultWindow = 60 * time.Second
)

type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter 固定窗口计数限流器，按操作人标识分桶。
// 进程内实现，多实例部署时各实例独立计数，超限只会延迟用户操作，
// 不会破坏数据，可接受。
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time // 测试用时钟
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go l.sweepLoop()
	return l
}

// sweepLoop 每个窗口周期清理一次过期计数桶，
// 防止未认证来源的IP桶随进程生命周期无限累积
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for range ticker.C {
		l.Sweep()
	}
}

// Allow 检查并累加指定标识的计数。窗口过期则重置后再累加；
// 累加后超过上限返回RateLimited错误。
func (l *Limiter) Allow(identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identifier]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[identifier] = b
	}

	if now.Sub(b.windowStart) > l.window {
		b.count = 0
		b.windowStart = now
	}

	b.count++
	if b.count > l.limit {
		return errors.RateLimited("操作过于频繁，请稍后再试")
	}
	return nil
}

// Sweep 清理已过期的计数桶
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, b := range l.buckets {
		if now.Sub(b.windowStart) > l.window {
			delete(l.buckets, id)
		}
	}
}
