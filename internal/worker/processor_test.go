package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/sheets/memory"
)

func TestProcessorCoalescesEvents(t *testing.T) {
	src := &fakeSource{}
	mirror := memory.New()
	p := NewProcessor(NewMirrorWorker(src, mirror, nil), ProcessorConfig{}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Enqueue(ctx, event("u1", march)))
	}
	require.NoError(t, p.Enqueue(ctx, event("u2", march)))
	assert.Equal(t, 2, p.Pending())

	p.Flush(ctx)

	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 2, mirror.Writes())
}

func TestProcessorBatchSize(t *testing.T) {
	src := &fakeSource{}
	p := NewProcessor(NewMirrorWorker(src, memory.New(), nil), ProcessorConfig{BatchSize: 2}, nil)
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, p.Enqueue(ctx, event(u, march)))
	}
	p.Flush(ctx)
	assert.Equal(t, 1, p.Pending())
	p.Flush(ctx)
	assert.Equal(t, 0, p.Pending())
}

func TestProcessorRetriesThenDrops(t *testing.T) {
	mirror := &flakyMirror{Mirror: memory.New(), failures: 10}
	p := NewProcessor(NewMirrorWorker(&fakeSource{}, mirror, nil), ProcessorConfig{MaxRetries: 2}, nil)
	ctx := context.Background()

	require.NoError(t, p.Enqueue(ctx, event("u1", march)))
	p.Flush(ctx)
	assert.Equal(t, 1, p.Pending(), "first failure keeps the month queued")
	p.Flush(ctx)
	assert.Equal(t, 0, p.Pending(), "dropped after max retries")
	assert.Equal(t, 0, mirror.Writes())
}

func TestProcessorRecoversAfterFailure(t *testing.T) {
	mirror := &flakyMirror{Mirror: memory.New(), failures: 1}
	p := NewProcessor(NewMirrorWorker(&fakeSource{}, mirror, nil), ProcessorConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, p.Enqueue(ctx, event("u1", march)))
	p.Flush(ctx)
	p.Flush(ctx)
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 1, mirror.Writes())
}

func TestProcessorEnqueueRejectsInvalid(t *testing.T) {
	p := NewProcessor(NewMirrorWorker(&fakeSource{}, memory.New(), nil), ProcessorConfig{}, nil)

	assert.Error(t, p.Enqueue(context.Background(), event("", march)))

	e := event("u1", march)
	e.Type = "archived"
	assert.ErrorContains(t, p.Enqueue(context.Background(), e), "invalid record event")
	assert.Equal(t, 0, p.Pending())
}

func TestProcessorLifecycle(t *testing.T) {
	src := &fakeSource{}
	mirror := memory.New()
	p := NewProcessor(NewMirrorWorker(src, mirror, nil), ProcessorConfig{FlushInterval: time.Hour}, nil)
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(ctx), "second start fails")

	require.NoError(t, p.Enqueue(ctx, event("u1", march)))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	assert.Equal(t, 1, mirror.Writes(), "stop flushes pending months")

	require.NoError(t, p.Stop(stopCtx), "stopping twice is a no-op")
}

func TestProcessorConcurrentStop(t *testing.T) {
	mirror := memory.New()
	p := NewProcessor(NewMirrorWorker(&fakeSource{}, mirror, nil), ProcessorConfig{FlushInterval: time.Hour}, nil)
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Enqueue(ctx, event("u1", march)))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Stop(stopCtx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, p.IsRunning())
	assert.Equal(t, 1, mirror.Writes())

	require.NoError(t, p.Start(ctx), "restart after stop")
	require.NoError(t, p.Stop(stopCtx))
}
