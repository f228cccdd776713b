// Package memo implements the per-task history/split memoization actor
// described in spec §4.4 and §9's "GetOrStart/Publish" design note: when
// more than one build variant references the same generator task, exactly
// one history fetch and one split computation happen, and every caller
// observes the same GeneratedSuite (spec P7).
//
// A single goroutine owns all actor state (no locks), following
// original_source/src/bin/gen_version.rs's GenTaskActor: an inbox of
// GetTask/AddTask messages, a map of completed results, and a map of
// waiter channels for in-flight computations. The first caller for a task
// name becomes that task's producer and reports back over the same inbox;
// every other caller for that name is queued as a waiter and receives the
// result once the producer publishes it.
package memo

import (
	"context"
	"sync"

	"github.com/mongodb/evg-resmoke-gen/internal/history"
	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/names"
)

// Splitter is the subset of *split.Splitter the memo actor needs.
type Splitter interface {
	SplitTask(ctx context.Context, taskHistory history.TaskHistory, variantName string) (model.GeneratedSuite, error)
}

// Writer is the subset of the writer pool (*writerpool.Pool) the memo
// actor needs: it enqueues the freshly split suite for file writes as
// soon as it's produced.
type Writer interface {
	Write(ctx context.Context, gen model.GeneratedSuite) error
}

type result struct {
	suite model.GeneratedSuite
	err   error
}

type getTaskMsg struct {
	taskName, suiteName, bvName string
	respond                     chan result
}

type addTaskMsg struct {
	taskName string
	res      result
}

// Actor is the memoization actor's handle. Callers only ever see GetTask;
// everything else is internal.
type Actor struct {
	inbox chan interface{}

	history  history.Fetcher
	splitter Splitter
	writer   Writer

	wg sync.WaitGroup
}

// New starts the actor's goroutine and returns a handle to it.
func New(historyFetcher history.Fetcher, splitter Splitter, writer Writer) *Actor {
	a := &Actor{
		inbox:    make(chan interface{}, 128),
		history:  historyFetcher,
		splitter: splitter,
		writer:   writer,
	}
	go a.run()
	return a
}

// GetTask returns the memoized GeneratedSuite for (taskName, suiteName,
// bvName), computing it at most once across however many variants ask
// for it.
func (a *Actor) GetTask(ctx context.Context, taskName, suiteName, bvName string) (model.GeneratedSuite, error) {
	respond := make(chan result, 1)
	select {
	case a.inbox <- getTaskMsg{taskName: taskName, suiteName: suiteName, bvName: bvName, respond: respond}:
	case <-ctx.Done():
		return model.GeneratedSuite{}, ctx.Err()
	}

	select {
	case r := <-respond:
		return r.suite, r.err
	case <-ctx.Done():
		return model.GeneratedSuite{}, ctx.Err()
	}
}

// Close waits for any in-flight producer goroutines to finish and stops
// accepting new requests. Callers must not call GetTask concurrently with
// or after Close.
func (a *Actor) Close() {
	a.wg.Wait()
	close(a.inbox)
}

func (a *Actor) run() {
	generated := map[string]result{}
	waiting := map[string][]chan result{}

	for msg := range a.inbox {
		switch m := msg.(type) {
		case getTaskMsg:
			if r, ok := generated[m.taskName]; ok {
				m.respond <- r
				continue
			}

			if _, inFlight := waiting[m.taskName]; inFlight {
				waiting[m.taskName] = append(waiting[m.taskName], m.respond)
				continue
			}

			waiting[m.taskName] = []chan result{m.respond}
			a.produce(m.taskName, m.suiteName, m.bvName)

		case addTaskMsg:
			generated[m.taskName] = m.res
			for _, respond := range waiting[m.taskName] {
				respond <- m.res
			}
			delete(waiting, m.taskName)
		}
	}
}

// produce runs the actual history-fetch + split + write pipeline for a
// task name in its own goroutine, then reports the outcome back to the
// actor's own inbox as an addTaskMsg — never touching actor state
// directly, so the actor goroutine remains the sole owner of its maps.
func (a *Actor) produce(taskName, suiteName, bvName string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx := context.Background()
		shortTaskName := names.StripGenSuffix(taskName)

		taskHistory, err := a.history.GetTaskHistory(ctx, shortTaskName, bvName, suiteName)
		if err != nil {
			a.inbox <- addTaskMsg{taskName: taskName, res: result{err: err}}
			return
		}

		genSuite, err := a.splitter.SplitTask(ctx, taskHistory, bvName)
		if err != nil {
			a.inbox <- addTaskMsg{taskName: taskName, res: result{err: err}}
			return
		}

		if err := a.writer.Write(ctx, genSuite); err != nil {
			a.inbox <- addTaskMsg{taskName: taskName, res: result{err: err}}
			return
		}

		a.inbox <- addTaskMsg{taskName: taskName, res: result{suite: genSuite}}
	}()
}
