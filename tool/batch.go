package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/concord-labs/concord/status"
)

// batchConcurrency bounds the fan-out of per-item batch work.
const batchConcurrency = 4

// runBatch fans perItem out over items with bounded concurrency and returns
// success/failure counts. Item completions may land in any order; the
// counters are commutative so ordering does not matter.
func runBatch[T any](ctx context.Context, items []T, perItem func(context.Context, T) error) (succeeded, failed int) {
	sem := make(chan struct{}, batchConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, it := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()
			err := perItem(ctx, item)
			mu.Lock()
			if err != nil {
				failed++
			} else {
				succeeded++
			}
			mu.Unlock()
		}(it)
	}
	wg.Wait()
	return succeeded, failed
}

// dispatchBatch is the shared frame around every batch tool: it creates
// exactly one pending status record up front (with the total item count),
// fans the work out, updates the record exactly once at the end, refreshes
// context once, and reports the aggregate to the model. Per-item work calls
// the providers directly, so no per-item records are created.
func dispatchBatch[T any](
	d *Dispatcher,
	ctx context.Context,
	scope Scope,
	kind status.Kind,
	noun string,
	items []T,
	perItem func(context.Context, T) error,
) (string, error) {
	total := len(items)
	recordID := d.track(scope, kind, status.StatePending, "", total)

	succeeded, failed := runBatch(ctx, items, perItem)

	detail := fmt.Sprintf("%d of %d succeeded", succeeded, total)
	d.resolve(scope, recordID, status.StateSuccess, detail, succeeded)
	d.refreshAfterBatch(ctx)

	d.logger.Info("tool.batch.done", "kind", string(kind), "total", total, "succeeded", succeeded, "failed", failed)
	if failed > 0 {
		return fmt.Sprintf("Processed %d %s: %d succeeded, %d failed.", total, noun, succeeded, failed), nil
	}
	return fmt.Sprintf("Processed %d %s successfully.", total, noun), nil
}

// dedupe removes duplicate ids preserving first-occurrence order. Recurring
// series items legitimately share an id; deleting it twice must not be
// double-counted as a failure.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
