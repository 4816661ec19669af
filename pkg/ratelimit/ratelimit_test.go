package ratelimit

import (
	"testing"
	"time"

	"eduplat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowUnderLimit(t *testing.T) {
	l := NewLimiter(20, 60*time.Second)

	for i := 0; i < 20; i++ {
		assert.NoError(t, l.Allow("user:1"))
	}
}

func TestBlocksOver20thCallInWindow(t *testing.T) {
	l := NewLimiter(20, 60*time.Second)

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Allow("user:1"))
	}

	// 同一窗口内第21次必须失败
	err := l.Allow("user:1")
	require.Error(t, err)
	appErr := errors.Normalize(err)
	assert.Equal(t, errors.KindRateLimited, appErr.Kind)
}

func TestIdentifiersAreIsolated(t *testing.T) {
	l := NewLimiter(1, 60*time.Second)

	require.NoError(t, l.Allow("user:1"))
	require.Error(t, l.Allow("user:1"))
	// 其他操作人不受影响
	assert.NoError(t, l.Allow("user:2"))
}

func TestWindowResets(t *testing.T) {
	now := time.Now()
	l := NewLimiter(20, 60*time.Second)
	l.now = func() time.Time { return now }

	for i := 0; i < 21; i++ {
		_ = l.Allow("user:1")
	}
	require.Error(t, l.Allow("user:1"))

	// 窗口过期后计数重置，后续调用成功
	now = now.Add(61 * time.Second)
	assert.NoError(t, l.Allow("user:1"))
}

func TestSweepDropsStaleBuckets(t *testing.T) {
	now := time.Now()
	l := NewLimiter(20, 60*time.Second)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Allow("user:1"))
	require.NoError(t, l.Allow("user:2"))
	assert.Len(t, l.buckets, 2)

	now = now.Add(2 * time.Minute)
	l.Sweep()
	assert.Empty(t, l.buckets)
}

func TestBackgroundSweepEvictsStaleBuckets(t *testing.T) {
	l := NewLimiter(5, 20*time.Millisecond)
	require.NoError(t, l.Allow("ip:198.51.100.7"))

	// 后台清扫在窗口过期后移除计数桶，无需调用方介入
	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.buckets) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestDefaultsApplied(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, DefaultLimit, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}
