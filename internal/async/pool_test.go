package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPoolProcessesEveryJob(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		rids  = map[string]bool{}
	)
	p := NewPool(func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, job.Path)
		rids[common.RequestIDFromContext(ctx)] = true
		return nil
	}, quiet(), WithWorkers(3), WithQueueSize(2))

	for _, path := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		require.NoError(t, p.Enqueue(context.Background(), Job{Path: path}))
	}
	p.Shutdown(context.Background())

	require.ElementsMatch(t, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}, paths)
	require.Len(t, rids, 5)
}

func TestPoolSurvivesFailuresAndPanics(t *testing.T) {
	var handled atomic.Int32
	p := NewPool(func(ctx context.Context, job Job) error {
		handled.Add(1)
		switch job.Path {
		case "panic.pdf":
			panic("boom")
		case "fail.pdf":
			return errors.New("bad pdf")
		}
		return nil
	}, quiet(), WithWorkers(1))

	for _, path := range []string{"panic.pdf", "fail.pdf", "ok.pdf"} {
		require.NoError(t, p.Enqueue(context.Background(), Job{Path: path}))
	}
	p.Shutdown(context.Background())
	require.EqualValues(t, 3, handled.Load())
}

func TestEnqueueAfterShutdown(t *testing.T) {
	p := NewPool(func(context.Context, Job) error { return nil }, quiet())
	p.Shutdown(context.Background())
	p.Shutdown(context.Background())
	require.ErrorIs(t, p.Enqueue(context.Background(), Job{Path: "late.pdf"}), ErrQueueClosed)
}

func TestEnqueueHonorsContextWhenFull(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, quiet(), WithWorkers(1), WithQueueSize(1))

	require.NoError(t, p.Enqueue(context.Background(), Job{Path: "1.pdf"}))
	// worker holds 1.pdf, or the buffer does; fill until blocked
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = p.Enqueue(ctx, Job{Path: "more.pdf"})
	}
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	p.Shutdown(context.Background())
}

func TestJobTimeoutIsApplied(t *testing.T) {
	got := make(chan error, 1)
	p := NewPool(func(ctx context.Context, job Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}, quiet(), WithJobTimeout(10*time.Millisecond))

	require.NoError(t, p.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	require.ErrorIs(t, <-got, context.DeadlineExceeded)
	p.Shutdown(context.Background())
}
