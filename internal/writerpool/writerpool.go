// Package writerpool renders a GeneratedSuite's sub-suites (and its misc
// file) to disk through a fixed-size worker pool (spec §4.8).
//
// Grounded on original_source/src/write_config.rs's actor shape (one
// channel, one message type), reworked onto a fixed pool of worker
// goroutines in the teacher's mongoimport.go idiom: tomb.Tomb for
// shutdown and for joining workers, and a buffered work channel per
// worker. Within a worker, a suite's independent file writes run
// concurrently via golang.org/x/sync/errgroup. Each generated file's
// header comment is wrapped with github.com/mitchellh/go-wordwrap,
// mirroring the teacher's release/evergreen/evergreen.go use of the
// same library for generated-text formatting.
package writerpool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/tomb.v2"
	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
	"github.com/mongodb/evg-resmoke-gen/internal/gen/log"
	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe"
	"github.com/mongodb/evg-resmoke-gen/internal/suiteconfig"
)

const defaultWorkerCount = 32

const headerWrapWidth = 76

type writeRequest struct {
	gen  model.GeneratedSuite
	done chan error
}

// Pool is a fixed-size set of workers that each own a round-robin slice
// of incoming GeneratedSuite write requests.
type Pool struct {
	tomb.Tomb

	configDir string
	discovery resmokeprobe.TestDiscovery

	queues []chan writeRequest
	next   uint64
	mu     sync.Mutex
}

// New starts a pool of workerCount goroutines (defaulting to 32)
// writing rendered suite files under configDir.
func New(configDir string, discovery resmokeprobe.TestDiscovery, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		configDir: configDir,
		discovery: discovery,
		queues:    make([]chan writeRequest, workerCount),
	}

	for i := range p.queues {
		p.queues[i] = make(chan writeRequest, 8)
		idx := i
		p.Go(func() error {
			p.runWorker(idx)
			return nil
		})
	}

	return p
}

// Write enqueues gen's files for rendering, round-robin across workers,
// and blocks until that worker has processed it.
func (p *Pool) Write(ctx context.Context, gen model.GeneratedSuite) error {
	p.mu.Lock()
	idx := p.next % uint64(len(p.queues))
	p.next++
	p.mu.Unlock()

	req := writeRequest{gen: gen, done: make(chan error, 1)}

	select {
	case p.queues[idx] <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.Dying():
		return errs.New(errs.IO, gen.TaskName, tomb.ErrDying)
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every worker has drained its queue of outstanding
// writes, by sending one empty sentinel request (zero-value
// GeneratedSuite) per worker and waiting for its
// round-trip acknowledgement — forcing completion of everything already
// enqueued ahead of it, per spec §4.8.
func (p *Pool) Flush(ctx context.Context) error {
	var eg errgroup.Group
	for _, q := range p.queues {
		q := q
		eg.Go(func() error {
			done := make(chan error, 1)
			select {
			case q <- writeRequest{done: done}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return eg.Wait()
}

// Close stops every worker and waits for them to exit. Callers must not
// call Write or Flush after Close.
func (p *Pool) Close() error {
	for _, q := range p.queues {
		close(q)
	}
	p.Kill(nil)
	return p.Wait()
}

func (p *Pool) runWorker(idx int) {
	for req := range p.queues[idx] {
		if req.gen.TaskName == "" && req.gen.SuiteName == "" {
			// Flush sentinel: nothing to write.
			req.done <- nil
			continue
		}

		err := p.writeSuite(req.gen)
		if err != nil {
			log.Error(req.gen.TaskName, err)
		}
		req.done <- err
	}
}

func (p *Pool) writeSuite(gen model.GeneratedSuite) error {
	ctx := context.Background()

	data, err := p.discovery.SuiteConfig(ctx, gen.SuiteName)
	if err != nil {
		return err
	}

	var eg errgroup.Group
	for _, sub := range gen.SubSuites {
		sub := sub
		eg.Go(func() error {
			rewritten, err := suiteconfig.Rewrite(data, sub.TestList, nil)
			if err != nil {
				return err
			}
			return p.writeFile(sub.Name, gen, rewritten)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	rewritten, err := suiteconfig.Rewrite(data, nil, gen.AllTests())
	if err != nil {
		return err
	}
	return p.writeFile(gen.TaskName+"_misc", gen, rewritten)
}

func (p *Pool) writeFile(baseName string, gen model.GeneratedSuite, rewritten *yaml.Node) error {
	body, err := suiteconfig.Marshal(rewritten)
	if err != nil {
		return err
	}

	path := filepath.Join(p.configDir, baseName+".yml")
	out := append([]byte(header(gen)), body...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errs.Wrap(errs.IO, path, err, "writing generated suite file")
	}
	return nil
}

func header(gen model.GeneratedSuite) string {
	text := fmt.Sprintf("generated from task %s, suite %s; do not edit by hand", gen.TaskName, gen.SuiteName)
	wrapped := wordwrap.WrapString(text, headerWrapWidth)
	return "# " + strings.ReplaceAll(wrapped, "\n", "\n# ") + "\n"
}
