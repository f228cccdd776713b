// Package historytest provides an in-memory history.Fetcher double for
// exercising the splitter and memo packages without a real Evergreen
// client.
package historytest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mongodb/evg-resmoke-gen/internal/history"
)

// Fake returns a fixed TaskHistory per (task, variant, suite) key and
// counts how many times GetTaskHistory was called in total, across all
// keys, so tests can assert memoization (spec P7).
type Fake struct {
	mu        sync.Mutex
	Histories map[string]history.TaskHistory
	calls     int64
}

var _ history.Fetcher = (*Fake)(nil)

func key(task, variant, suite string) string {
	return task + "|" + variant + "|" + suite
}

func (f *Fake) GetTaskHistory(_ context.Context, task, variant, suite string) (history.TaskHistory, error) {
	atomic.AddInt64(&f.calls, 1)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Histories[key(task, variant, suite)], nil
}

// Calls reports how many times GetTaskHistory has been invoked.
func (f *Fake) Calls() int64 {
	return atomic.LoadInt64(&f.calls)
}
