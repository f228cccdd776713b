// Package resmoketask turns a split model.GeneratedSuite into the set of
// shrub sub-tasks that actually run each sub-suite (spec §4.7).
//
// Grounded on original_source/src/resmoke_task_gen.rs
// (ResmokeGenService::generate_tasks/create_sub_task), reworked to build
// *shrub.Task values directly as the teacher's
// mongodump_passthrough/task-generator/generate/resmoke_tasks.go does.
package resmoketask

import (
	"fmt"

	"github.com/evergreen-ci/shrub"

	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
)

// Params carries the per-task settings that apply uniformly to every
// sub-task generated for a GeneratedSuite.
type Params struct {
	RequireMultiversionSetup bool
	ResmokeArgs              string
	ResmokeJobsMax           option.Option[int]
	ConfigLocation           option.Option[string]
}

// Generate builds one shrub.Task per sub-suite in gen, in partition order.
func Generate(gen model.GeneratedSuite, params Params) []*shrub.Task {
	tasks := make([]*shrub.Task, 0, len(gen.SubSuites))
	for _, sub := range gen.SubSuites {
		tasks = append(tasks, buildSubTask(sub.Name, params))
	}
	return tasks
}

func buildSubTask(subSuiteName string, params Params) *shrub.Task {
	task := &shrub.Task{Name: subSuiteName}
	task.Dependency(shrub.TaskDependency{Name: "archive_dist_test"})

	if params.RequireMultiversionSetup {
		task.Function("git get project no modules", "add git tag")
	}

	task.Function("do setup", "configure evergreen api credentials")

	if params.RequireMultiversionSetup {
		task.Function("do multiversion setup")
	}

	task.AddCommand().Function("run generated tests").ReplaceVars(runTestVars(subSuiteName, params))

	return task
}

func runTestVars(subSuiteName string, params Params) map[string]string {
	vars := map[string]string{
		"require_multiversion_setup": fmt.Sprintf("%t", params.RequireMultiversionSetup),
		"resmoke_args":               fmt.Sprintf("--originSuite=%s %s", subSuiteName, params.ResmokeArgs),
		"suite":                      fmt.Sprintf("generated_resmoke_config/%s.yml", subSuiteName),
	}

	if loc, ok := params.ConfigLocation.Get(); ok {
		vars["gen_task_config_location"] = loc
	}
	if jobsMax, ok := params.ResmokeJobsMax.Get(); ok {
		vars["resmoke_jobs_max"] = fmt.Sprintf("%d", jobsMax)
	}

	return vars
}

// TaskRefs builds the build variant's task references for gen's sub-tasks,
// each deactivated per spec §4.7/P9 so the parent generator task controls
// their activation.
func TaskRefs(gen model.GeneratedSuite) []shrub.TaskSpec {
	refs := make([]shrub.TaskSpec, 0, len(gen.SubSuites))
	for _, sub := range gen.SubSuites {
		inactive := false
		spec := shrub.TaskSpec{Name: sub.Name}
		spec.SetActivate(&inactive)
		refs = append(refs, spec)
	}
	return refs
}
