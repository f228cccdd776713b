// Package split implements the greedy runtime-balanced partition
// described in spec §4.5.
//
// Grounded on original_source/src/split_tasks.rs (TaskSplitter::split_task).
package split

import (
	"context"

	"github.com/mongodb/evg-resmoke-gen/internal/history"
	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/names"
	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe"
)

// Config carries the splitter's single tuning knob.
type Config struct {
	NSuites int
}

// Splitter partitions a discovered test list using history data.
type Splitter struct {
	TestDiscovery resmokeprobe.TestDiscovery
	Config        Config
}

// New builds a Splitter.
func New(discovery resmokeprobe.TestDiscovery, cfg Config) *Splitter {
	return &Splitter{TestDiscovery: discovery, Config: cfg}
}

// SplitTask implements spec §4.5's algorithm against taskHistory and the
// given build variant name (used only for sub-suite naming).
func (s *Splitter) SplitTask(ctx context.Context, taskHistory history.TaskHistory, variantName string) (model.GeneratedSuite, error) {
	testList, err := s.TestDiscovery.Discover(ctx, taskHistory.SuiteName)
	if err != nil {
		return model.GeneratedSuite{}, err
	}

	totalRuntime := 0.0
	for _, t := range taskHistory.TestMap {
		totalRuntime += t.AverageRuntime
	}

	maxTasks := s.Config.NSuites
	if len(testList) < maxTasks {
		maxTasks = len(testList)
	}

	gen := model.GeneratedSuite{TaskName: taskHistory.TaskName, SuiteName: taskHistory.SuiteName}
	if maxTasks == 0 {
		return gen, nil
	}

	target := totalRuntime / float64(maxTasks)

	var runningTests []string
	runningRuntime := 0.0
	i := 0

	for _, test := range testList {
		logicalName := history.LogicalTestName(test)
		stats, known := taskHistory.TestMap[logicalName]

		// The cut decision considers every test's contribution to the
		// running total, known or not (an unknown test contributes 0);
		// only a known test actually advances running_runtime.
		if runningRuntime+stats.AverageRuntime > target &&
			len(runningTests) > 0 &&
			len(gen.SubSuites) < maxTasks-1 {
			gen.SubSuites = append(gen.SubSuites, model.SubSuite{
				Name:     names.NameSubSuite(taskHistory.TaskName, i, maxTasks, variantName),
				TestList: runningTests,
			})
			runningTests = nil
			runningRuntime = 0.0
			i++
		}
		if known {
			runningRuntime += stats.AverageRuntime
		}
		runningTests = append(runningTests, test)
	}

	if len(runningTests) > 0 {
		gen.SubSuites = append(gen.SubSuites, model.SubSuite{
			Name:     names.NameSubSuite(taskHistory.TaskName, i, maxTasks, variantName),
			TestList: runningTests,
		})
	}

	return gen, nil
}
