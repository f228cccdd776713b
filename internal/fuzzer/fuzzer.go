// Package fuzzer expands fuzzer-task parameters into a flat list of
// sub-task definitions (spec §4.6), with optional multiversion cross-
// product expansion over suiteconfig.FixtureType.VersionCombinations.
//
// Grounded on original_source/src/task_types/fuzzer_tasks.rs
// (GenFuzzerServiceImpl, FuzzerGenTaskParams, build_fuzzer_sub_task),
// reworked to build *shrub.Task values directly the way the teacher's
// mongodump_passthrough/task-generator/generate package does.
package fuzzer

import (
	"strconv"
	"strings"

	"github.com/evergreen-ci/shrub"
	"github.com/samber/lo"

	"github.com/mongodb/evg-resmoke-gen/internal/names"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
)

// Params is the full recognized set of fuzzer generator vars (spec §6).
type Params struct {
	TaskName                string
	Variant                 string
	Suite                   string
	NumFiles                int
	NumTasks                int
	ResmokeArgs             string
	NpmCommand              string
	JstestfuzzVars          option.Option[string]
	ContinueOnFailure       bool
	ResmokeJobsMax          int
	ShouldShuffle           bool
	TimeoutSecs             int
	RequireMultiversionSetup bool
	ConfigLocation          string
	VersionCombinations     []string // the suite's fixture-derived set, for multiversion expansion
	LastVersions            []string // multiversion.last_versions
}

// Generate implements spec §4.6: emits NumTasks sub-tasks, or the full
// LastVersions × VersionCombinations cross product of NumTasks-sized
// groups when RequireMultiversionSetup is set (spec P8).
func Generate(p Params) []*shrub.Task {
	if !p.RequireMultiversionSetup {
		tasks := make([]*shrub.Task, 0, p.NumTasks)
		for i := 0; i < p.NumTasks; i++ {
			tasks = append(tasks, buildSubTask(p, p.TaskName, i, "", ""))
		}
		return tasks
	}

	var tasks []*shrub.Task
	for _, oldVersion := range p.LastVersions {
		for _, mixedBin := range p.VersionCombinations {
			baseTaskName := joinNonEmpty("_", p.TaskName, oldVersion, mixedBin)
			baseSuiteName := joinNonEmpty("_", p.Suite, oldVersion, mixedBin)

			for i := 0; i < p.NumTasks; i++ {
				tasks = append(tasks, buildSubTask(p, baseTaskName, i, baseSuiteName, mixedBin))
			}
		}
	}
	return tasks
}

// joinNonEmpty joins the non-empty parts with sep, mirroring
// GenFuzzerServiceImpl::build_name.
func joinNonEmpty(sep string, parts ...string) string {
	nonEmpty := lo.Filter(parts, func(p string, _ int) bool { return p != "" })
	return strings.Join(nonEmpty, sep)
}

func buildSubTask(p Params, baseTaskName string, index int, baseSuiteName, mixedBinVersion string) *shrub.Task {
	subTaskName := names.NameGeneratedTask(
		baseTaskName,
		option.Some(index),
		option.Some(p.NumTasks),
		option.Some(p.Variant),
	)

	task := &shrub.Task{Name: subTaskName}
	task.Dependency(shrub.TaskDependency{Name: "archive_dist_test_debug"})

	if p.RequireMultiversionSetup {
		task.Function("git get project no modules", "add git tag")
	}

	task.Function("do setup", "configure evergreen api credentials")

	if p.RequireMultiversionSetup {
		task.Function("do multiversion setup")
	}

	task.Function("setup jstestfuzz")
	task.AddCommand().Function("run jstestfuzz").ReplaceVars(jstestfuzzVars(p))
	task.AddCommand().Function("run generated tests").ReplaceVars(runTestsVars(p, baseSuiteName, mixedBinVersion))

	return task
}

func jstestfuzzVars(p Params) map[string]string {
	parts := []string{"--numGeneratedFiles", strconv.Itoa(p.NumFiles)}
	if extra, ok := p.JstestfuzzVars.Get(); ok && extra != "" {
		parts = append(parts, extra)
	}
	return map[string]string{
		"npm_command":     p.NpmCommand,
		"jstestfuzz_vars": strings.Join(parts, " "),
	}
}

func runTestsVars(p Params, baseSuiteName, mixedBinVersion string) map[string]string {
	vars := map[string]string{
		"continue_on_failure":        strconv.FormatBool(p.ContinueOnFailure),
		"resmoke_args":               p.ResmokeArgs,
		"resmoke_jobs_max":           strconv.Itoa(p.ResmokeJobsMax),
		"should_shuffle":             strconv.FormatBool(p.ShouldShuffle),
		"require_multiversion_setup": strconv.FormatBool(p.RequireMultiversionSetup),
		"timeout_secs":               strconv.Itoa(p.TimeoutSecs),
		"task":                       p.TaskName,
		"gen_task_config_location":   p.ConfigLocation,
	}

	if baseSuiteName != "" {
		vars["suite"] = baseSuiteName
	} else {
		vars["suite"] = p.Suite
	}

	if mixedBinVersion != "" {
		vars["multiversion_exclude_tags_version"] = mixedBinVersion
	}

	return vars
}
