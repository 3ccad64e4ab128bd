package workerpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/core"
	"sprawlstats/ports"
)

func echo(_ context.Context, payload []byte) ([]byte, error) {
	return append([]byte("echo:"), payload...), nil
}

func TestSubmitRoundTrip(t *testing.T) {
	p := New(echo, Options{Workers: 2, QueueSize: 4})
	p.Open()
	defer p.Close()
	require.True(t, p.Available())

	resp, err := p.Submit(context.Background(), ports.OffloadRequest{ID: "r1", Payload: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, "echo:hi", string(resp.Payload))
	assert.Empty(t, resp.Err)
}

func TestSubmitCorrelatesConcurrentRequests(t *testing.T) {
	p := New(echo, Options{Workers: 3, QueueSize: 2})
	p.Open()
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := core.NewRequestID().String()
			resp, err := p.Submit(context.Background(), ports.OffloadRequest{ID: id, Payload: []byte(id)})
			assert.NoError(t, err)
			assert.Equal(t, id, resp.ID)
			assert.Equal(t, "echo:"+id, string(resp.Payload))
		}(i)
	}
	wg.Wait()
}

func TestSubmitHandlerErrorAndPanic(t *testing.T) {
	p := New(func(_ context.Context, payload []byte) ([]byte, error) {
		if string(payload) == "panic" {
			panic("boom")
		}
		return nil, errors.New("kernel failed")
	}, Options{Workers: 1})
	p.Open()
	defer p.Close()

	resp, err := p.Submit(context.Background(), ports.OffloadRequest{ID: "a", Payload: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "kernel failed", resp.Err)

	resp, err = p.Submit(context.Background(), ports.OffloadRequest{ID: "b", Payload: []byte("panic")})
	require.NoError(t, err)
	assert.Contains(t, resp.Err, "boom")
}

func TestSubmitTimeoutDetachesListener(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	p := New(func(context.Context, []byte) ([]byte, error) {
		<-release
		close(done)
		return []byte("late"), nil
	}, Options{Workers: 1})
	p.Open()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Submit(ctx, ports.OffloadRequest{ID: "slow"})
	assert.ErrorIs(t, err, core.ErrTimeout)

	p.mu.Lock()
	_, stillPending := p.pending["slow"]
	p.mu.Unlock()
	assert.False(t, stillPending)

	// the job keeps running and its late reply is dropped
	close(release)
	<-done
	p.Close()
}

func TestSubmitRejectsWhenClosedOrDuplicate(t *testing.T) {
	p := New(echo, Options{Workers: 1})
	_, err := p.Submit(context.Background(), ports.OffloadRequest{ID: "x"})
	assert.ErrorIs(t, err, core.ErrPoolClosed)
	assert.False(t, p.Available())

	_, err = p.Submit(context.Background(), ports.OffloadRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	block := make(chan struct{})
	p = New(func(context.Context, []byte) ([]byte, error) {
		<-block
		return nil, nil
	}, Options{Workers: 1})
	p.Open()
	go func() {
		_, _ = p.Submit(context.Background(), ports.OffloadRequest{ID: "dup"})
	}()
	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, ok := p.pending["dup"]
		return ok
	}, time.Second, time.Millisecond)

	_, err = p.Submit(context.Background(), ports.OffloadRequest{ID: "dup"})
	assert.Error(t, err)

	close(block)
	p.Close()
	p.Close()
	assert.False(t, p.Available())
}

func TestMetricsCountOutcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(jobsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(jobsTotal.WithLabelValues("error"))

	p := New(func(_ context.Context, payload []byte) ([]byte, error) {
		if string(payload) == "fail" {
			return nil, errors.New("failed")
		}
		return payload, nil
	}, Options{Workers: 1})
	p.Open()
	defer p.Close()

	_, err := p.Submit(context.Background(), ports.OffloadRequest{ID: "m1", Payload: []byte("ok")})
	require.NoError(t, err)
	_, err = p.Submit(context.Background(), ports.OffloadRequest{ID: "m2", Payload: []byte("fail")})
	require.NoError(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(jobsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(jobsTotal.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pendingRequests))
	assert.Equal(t, 0.0, testutil.ToFloat64(queueDepth))
}
