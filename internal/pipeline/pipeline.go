// Package pipeline implements the orchestrator core described in spec
// §4.9: walking a project's build variants and generator tasks,
// dispatching each to the fuzzer or splittable path, and aggregating
// the results into a single Evergreen project configuration.
//
// Grounded on original_source/src/bin/gen_version.rs's main()
// fan-out/aggregation shape, translated from tokio tasks onto
// goroutines joined via golang.org/x/sync/errgroup.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/evergreen-ci/shrub"
	"golang.org/x/sync/errgroup"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
	"github.com/mongodb/evg-resmoke-gen/internal/fuzzer"
	"github.com/mongodb/evg-resmoke-gen/internal/gen/log"
	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/names"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
	"github.com/mongodb/evg-resmoke-gen/internal/project"
	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe"
	"github.com/mongodb/evg-resmoke-gen/internal/resmoketask"
	"github.com/mongodb/evg-resmoke-gen/internal/suiteconfig"
)

// Mode selects which of the two entrypoints invoked the pipeline,
// answering spec §9's Open Question (c): one core, two shapes of
// build-variant fan-out.
type Mode int

const (
	// BuildVariantMode generates one build variant's tasks in isolation.
	BuildVariantMode Mode = iota
	// VersionMode generates every build variant in the project, in
	// parallel, producing output build variants with activate=false.
	VersionMode
)

const displayTaskName = "generator_tasks"

// Memo is the subset of *memo.Actor the pipeline needs.
type Memo interface {
	GetTask(ctx context.Context, taskName, suiteName, bvName string) (model.GeneratedSuite, error)
}

// Flusher is the subset of *writerpool.Pool the pipeline needs beyond
// what the memo actor already drives.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Input bundles everything Run needs beyond the mode/variant selection.
type Input struct {
	Project       *project.Config
	Expansions    *project.Expansions
	Memo          Memo
	Writer        Flusher
	Probe         resmokeprobe.TestDiscovery
	ConfigDir     string
	OutputName    string // used only in BuildVariantMode
}

// Run executes the orchestrator for the given mode and writes the
// resulting project configuration to disk, returning its path.
func Run(ctx context.Context, mode Mode, in Input) (string, error) {
	variantNames, err := selectVariants(mode, in)
	if err != nil {
		return "", err
	}

	agg := &aggregate{cfg: &shrub.Configuration{}, seenGenTasks: map[string]bool{}}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, vn := range variantNames {
		vn := vn
		eg.Go(func() error {
			return processVariant(egCtx, in, vn, mode, agg)
		})
	}

	if err := eg.Wait(); err != nil {
		return "", err
	}

	if err := in.Writer.Flush(ctx); err != nil {
		return "", err
	}

	return writeOutput(mode, in, agg.cfg)
}

func selectVariants(mode Mode, in Input) ([]string, error) {
	if mode == BuildVariantMode {
		return []string{in.Expansions.BuildVariant}, nil
	}

	variantNames := make([]string, 0, len(in.Project.BuildVariants))
	for _, bv := range in.Project.BuildVariants {
		variantNames = append(variantNames, bv.Name)
	}
	return variantNames, nil
}

// aggregate holds the pipeline's shared output state, guarded by mu.
// Critical sections are limited to slice/map appends; no I/O happens
// under lock, per spec §5's shared-resource policy.
type aggregate struct {
	mu           sync.Mutex
	cfg          *shrub.Configuration
	seenGenTasks map[string]bool // short generator-task names materialized so far
}

func (a *aggregate) addTasks(tasks []*shrub.Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Tasks = append(a.cfg.Tasks, tasks...)
}

func (a *aggregate) markSeen(shortTaskName string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seenGenTasks[shortTaskName] {
		return false
	}
	a.seenGenTasks[shortTaskName] = true
	return true
}

func (a *aggregate) variant(name string) *shrub.Variant {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Variant(name)
}

func processVariant(ctx context.Context, in Input, variantName string, mode Mode, agg *aggregate) error {
	bv, ok := in.Project.VariantByName(variantName)
	if !ok {
		return errs.Newf(errs.InvalidInput, variantName, "unknown build variant")
	}

	outVariant := agg.variant(variantName)
	if mode == VersionMode {
		inactive := false
		outVariant.SetActivate(&inactive)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	seenGeneratorNames := map[string]bool{}
	var generatorNames []string
	for _, ref := range bv.Tasks {
		ref := ref
		td, ok := in.Project.TaskByName(ref.Name)
		if !ok || !project.IsGenerator(td) {
			continue
		}

		if !seenGeneratorNames[td.Name] {
			seenGeneratorNames[td.Name] = true
			generatorNames = append(generatorNames, td.Name)
		}

		eg.Go(func() error {
			return processTask(egCtx, in, td, bv, variantName, agg)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	// The "generator_tasks" display task's execution tasks are the set
	// of generator task names actually seen on THIS variant (spec
	// §4.9) — never a sub-task name, and never shared across variants.
	if len(generatorNames) > 0 {
		agg.mu.Lock()
		outVariant.DisplayTasks(shrub.DisplayTaskDefinition{Name: displayTaskName, Components: generatorNames})
		agg.mu.Unlock()
	}

	return nil
}

func processTask(ctx context.Context, in Input, td project.TaskDef, bv project.BuildVariant, variantName string, agg *aggregate) error {
	if project.IsFuzzerTask(td) {
		return processFuzzerTask(ctx, in, td, bv, variantName, agg)
	}
	return processSplittableTask(ctx, in, td, bv, variantName, agg)
}

func processFuzzerTask(ctx context.Context, in Input, td project.TaskDef, bv project.BuildVariant, variantName string, agg *aggregate) error {
	params, err := fuzzerParams(ctx, in, td, bv)
	if err != nil {
		return err
	}

	tasks := fuzzer.Generate(params)
	agg.addTasks(tasks)

	outVariant := agg.variant(variantName)
	agg.mu.Lock()
	for _, t := range tasks {
		outVariant.AddTasks(t.Name)
	}
	agg.mu.Unlock()

	log.Infof(td.Name, "generated %d fuzzer sub-tasks for variant %s", len(tasks), variantName)
	return nil
}

func fuzzerParams(ctx context.Context, in Input, td project.TaskDef, bv project.BuildVariant) (fuzzer.Params, error) {
	numFilesRaw, _ := project.GenTaskVar(td, "num_files")
	numFilesStr, ok := project.ResolveExpansion(numFilesRaw, bv.Expansions)
	if !ok {
		return fuzzer.Params{}, errs.Newf(errs.InvalidInput, td.Name, "could not resolve num_files expansion %q", numFilesRaw)
	}
	numFiles, err := strconv.Atoi(numFilesStr)
	if err != nil {
		return fuzzer.Params{}, errs.Wrap(errs.InvalidInput, td.Name, err, "parsing num_files")
	}

	numTasksStr, _ := project.GenTaskVar(td, "num_tasks")
	numTasks, err := strconv.Atoi(numTasksStr)
	if err != nil {
		numTasks = 1
	}

	resmokeArgs, _ := project.GenTaskVar(td, "resmoke_args")

	npmCommand, ok := project.GenTaskVar(td, "npm_command")
	if !ok {
		npmCommand = "jstestfuzz"
	}

	suite := project.SuiteName(td)
	requireMultiversion, _ := project.GenTaskVar(td, "require_multiversion_setup")

	params := fuzzer.Params{
		TaskName:                 names.StripGenSuffix(td.Name),
		Variant:                  bv.Name,
		Suite:                    suite,
		NumFiles:                 numFiles,
		NumTasks:                 numTasks,
		ResmokeArgs:              resmokeArgs,
		NpmCommand:               npmCommand,
		ContinueOnFailure:        genTaskBool(td, "continue_on_failure"),
		ShouldShuffle:            genTaskBool(td, "should_shuffle"),
		RequireMultiversionSetup: requireMultiversion == "true",
		ConfigLocation:           configLocationFor(in.Expansions),
	}

	if v, ok := project.GenTaskVar(td, "jstestfuzz_vars"); ok {
		params.JstestfuzzVars = option.Some(v)
	}
	if v, ok := project.GenTaskVar(td, "resmoke_jobs_max"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			params.ResmokeJobsMax = n
		}
	}
	if v, ok := project.GenTaskVar(td, "timeout_secs"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			params.TimeoutSecs = n
		}
	}

	if params.RequireMultiversionSetup {
		mvConfig, err := in.Probe.MultiversionConfig(ctx)
		if err != nil {
			return fuzzer.Params{}, err
		}
		params.LastVersions = mvConfig.LastVersions

		suiteDoc, err := in.Probe.SuiteConfig(ctx, suite)
		if err != nil {
			return fuzzer.Params{}, err
		}
		fixture, err := suiteconfig.FixtureTypeOf(suiteDoc)
		if err != nil {
			return fuzzer.Params{}, err
		}
		params.VersionCombinations = fixture.VersionCombinations()
	}

	return params, nil
}

func genTaskBool(td project.TaskDef, key string) bool {
	v, _ := project.GenTaskVar(td, key)
	return v == "true"
}

func processSplittableTask(ctx context.Context, in Input, td project.TaskDef, bv project.BuildVariant, variantName string, agg *aggregate) error {
	suite := project.SuiteName(td)
	shortName := names.StripGenSuffix(td.Name)

	genSuite, err := in.Memo.GetTask(ctx, td.Name, suite, variantName)
	if err != nil {
		return err
	}

	if agg.markSeen(shortName) {
		resmokeArgs, _ := project.GenTaskVar(td, "resmoke_args")
		requireMultiversion, _ := project.GenTaskVar(td, "require_multiversion_setup")

		subTasks := resmoketask.Generate(genSuite, resmoketask.Params{
			ResmokeArgs:              resmokeArgs,
			RequireMultiversionSetup: requireMultiversion == "true",
			ConfigLocation:           option.IfNotZero(configLocationFor(in.Expansions)),
		})
		agg.addTasks(subTasks)
	}

	refs := resmoketask.TaskRefs(genSuite)
	outVariant := agg.variant(variantName)

	agg.mu.Lock()
	for _, ref := range refs {
		outVariant.TaskSpec(ref)
	}
	agg.mu.Unlock()

	return nil
}

func configLocationFor(e *project.Expansions) string {
	if e == nil {
		return ""
	}
	return e.ConfigLocationBuildVariant()
}

func writeOutput(mode Mode, in Input, cfg *shrub.Configuration) (string, error) {
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.IO, "", err, "marshaling output project")
	}

	var fileName string
	if mode == BuildVariantMode {
		fileName = fmt.Sprintf("%s.json", in.OutputName)
	} else {
		fileName = "evergreen_config.json"
	}

	path := filepath.Join(in.ConfigDir, fileName)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", errs.Wrap(errs.IO, path, err, "writing output project")
	}
	return path, nil
}
