package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func completed(t *testing.T) *analysis.Result {
	t.Helper()
	r := analysis.NewResult("cfg")
	require.NoError(t, r.Complete(&analysis.ResultData{}, "ok", nil))
	return r
}

func TestKeyChangesWithEveryPart(t *testing.T) {
	base := Key("cfg", "ds", core.Millis(100), "null")
	assert.Equal(t, base, Key("cfg", "ds", core.Millis(100), "null"))
	assert.NotEqual(t, base, Key("cfg2", "ds", core.Millis(100), "null"))
	assert.NotEqual(t, base, Key("cfg", "ds2", core.Millis(100), "null"))
	assert.NotEqual(t, base, Key("cfg", "ds", core.Millis(101), "null"))
	assert.NotEqual(t, base, Key("cfg", "ds", core.Millis(100), `{"normalize":true}`))
}

func TestGetHonoursTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(WithTTL(10*time.Minute), WithClock(clock.Now), WithJanitorInterval(0))

	r := completed(t)
	require.True(t, c.Put(ctx, "k", r))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Same(t, r, got)

	clock.Advance(9*time.Minute + 59*time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "expiresAt must be strictly in the future")
	assert.Equal(t, 0, c.Len())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestPutIgnoresUnfinishedAndFailedResults(t *testing.T) {
	ctx := context.Background()
	c := New(WithJanitorInterval(0))

	pending := analysis.NewResult("cfg")
	assert.False(t, c.Put(ctx, "a", pending))

	failed := analysis.NewResult("cfg")
	require.NoError(t, failed.Fail("VALIDATION_ERROR", "bad"))
	assert.False(t, c.Put(ctx, "b", failed))
	assert.False(t, c.Put(ctx, "c", nil))
	assert.Equal(t, 0, c.Len())
}

func TestGetOrComputeSharesConcurrentWork(t *testing.T) {
	ctx := context.Background()
	c := New(WithJanitorInterval(0))

	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) *analysis.Result {
		atomic.AddInt32(&calls, 1)
		<-release
		return completed(t)
	}

	const callers = 8
	results := make([]*analysis.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrCompute(ctx, "k", compute)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}

	again, hit := c.GetOrCompute(ctx, "k", compute)
	assert.True(t, hit)
	assert.Same(t, results[0], again)
}

func TestGetOrComputeDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	c := New(WithJanitorInterval(0))

	calls := 0
	compute := func(context.Context) *analysis.Result {
		calls++
		r := analysis.NewResult("cfg")
		_ = r.Fail("INSUFFICIENT_DATA", "not enough points")
		return r
	}
	_, hit := c.GetOrCompute(ctx, "k", compute)
	assert.False(t, hit)
	_, hit = c.GetOrCompute(ctx, "k", compute)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestJanitorPurgesExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New(WithTTL(time.Second), WithClock(clock.Now), WithJanitorInterval(5*time.Millisecond))
	c.Open()
	c.Open()
	defer c.Close()

	require.True(t, c.Put(ctx, "k", completed(t)))
	clock.Advance(2 * time.Second)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	c.Close()
	c.Close()
}
