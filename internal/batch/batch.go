package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	Size  int
	Delay time.Duration
	Sleep SleepFunc
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if size <= 0 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Run processes items chunk by chunk. Items inside a chunk run concurrently,
// chunks run in order with opts.Delay between them. fn receives the item's
// index in items. The first error stops further chunks once the current one finishes.
func Run[T any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, index int, item T) error) error {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	offset := 0
	for i, chunk := range Chunk(items, opts.Size) {
		if i > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return err
			}
		}
		g, gctx := errgroup.WithContext(ctx)
		for j, item := range chunk {
			idx := offset + j
			g.Go(func() error {
				return fn(gctx, idx, item)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		offset += len(chunk)
	}
	return nil
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
