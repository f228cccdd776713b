// Package project loads the Evergreen project definition and the run's
// expansions, and classifies/extracts generator-task parameters from
// them (spec §4.9's project-walk step and §6's external interfaces).
//
// Grounded on original_source/src/lib.rs (get_project_config,
// is_task_generated, get_gen_task_var, find_suite_name, is_fuzzer_task)
// and original_source/src/bin/{gen_build_variant,gen_version}.rs
// (EvgExpansions, translate_run_var, config_location).
package project

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
	"github.com/mongodb/evg-resmoke-gen/internal/names"
)

const generateResmokeFunc = "generate resmoke tasks"

// TaskDef is one task entry in the evaluated project config.
type TaskDef struct {
	Name     string   `yaml:"name"`
	Commands []Command `yaml:"commands"`
}

// Command is one command entry under a task; only the fields the
// generator needs are modeled.
type Command struct {
	Function string            `yaml:"func"`
	Vars      map[string]string `yaml:"vars"`
}

// BuildVariant is one build variant entry in the evaluated project config.
type BuildVariant struct {
	Name        string            `yaml:"name"`
	Tasks       []VariantTaskRef  `yaml:"tasks"`
	Expansions  map[string]string `yaml:"expansions"`
}

// VariantTaskRef is one task reference inside a build variant's task list.
type VariantTaskRef struct {
	Name string `yaml:"name"`
}

// Config is the evaluated Evergreen project definition.
type Config struct {
	Tasks         []TaskDef      `yaml:"tasks"`
	BuildVariants []BuildVariant `yaml:"buildvariants"`
}

// Load runs "evergreen evaluate <location>" and parses its stdout as the
// project config, mirroring get_project_config's subprocess shellout.
func Load(ctx context.Context, location string) (*Config, error) {
	cmd := exec.CommandContext(ctx, "evergreen", "evaluate", location)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, errs.Wrap(errs.ExternalProcess, location, err, "evaluating project config")
	}

	var cfg Config
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, location, err, "parsing evaluated project config")
	}

	return &cfg, nil
}

// TaskByName finds a task definition by name.
func (c *Config) TaskByName(name string) (TaskDef, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskDef{}, false
}

// VariantByName finds a build variant by name.
func (c *Config) VariantByName(name string) (BuildVariant, bool) {
	for _, bv := range c.BuildVariants {
		if bv.Name == name {
			return bv, true
		}
	}
	return BuildVariant{}, false
}

// IsGenerator reports whether t invokes "generate resmoke tasks".
func IsGenerator(t TaskDef) bool {
	_, ok := generateCommand(t)
	return ok
}

func generateCommand(t TaskDef) (Command, bool) {
	for _, c := range t.Commands {
		if c.Function == generateResmokeFunc {
			return c, true
		}
	}
	return Command{}, false
}

// GenTaskVar returns the named var passed to t's "generate resmoke
// tasks" command, if any.
func GenTaskVar(t TaskDef, key string) (string, bool) {
	cmd, ok := generateCommand(t)
	if !ok {
		return "", false
	}
	v, ok := cmd.Vars[key]
	return v, ok
}

// SuiteName returns the suite a generator task runs, defaulting to the
// task's own name with its "_gen" suffix stripped.
func SuiteName(t TaskDef) string {
	if suite, ok := GenTaskVar(t, "suite"); ok {
		return suite
	}
	return names.StripGenSuffix(t.Name)
}

// IsFuzzerTask classifies a generator task per spec §4.9 step 2.
func IsFuzzerTask(t TaskDef) bool {
	v, ok := GenTaskVar(t, "is_jstestfuzz")
	return ok && v == "true"
}

var expansionRE = regexp.MustCompile(`\$\{(?P<id>[a-zA-Z0-9_]+)(\|(?P<default>.*))?}`)

// ResolveExpansion implements spec §4.9's "Expansion resolution for
// fuzzer params": a literal "${id}" or "${id|default}" is resolved
// against expansions; any other string passes through unchanged. ok is
// false only when the string is an expansion reference that resolves to
// neither a present expansion nor a default.
func ResolveExpansion(runVar string, expansions map[string]string) (string, bool) {
	idx := expansionRE.FindStringSubmatchIndex(runVar)
	if idx == nil {
		return runVar, true
	}

	groupNames := expansionRE.SubexpNames()
	var id string
	var def string
	var hasDefault bool
	for i, name := range groupNames {
		start, end := idx[2*i], idx[2*i+1]
		switch name {
		case "id":
			id = runVar[start:end]
		case "default":
			if start != -1 {
				hasDefault = true
				def = runVar[start:end]
			}
		}
	}

	if v, ok := expansions[id]; ok {
		return v, true
	}
	if hasDefault {
		return def, true
	}
	return "", false
}

// Expansions is the subset of the run's expansions file recognized by
// this generator (spec §6).
type Expansions struct {
	BuildID               string `yaml:"build_id"`
	BuildVariant           string `yaml:"build_variant"`
	IsPatch                string `yaml:"is_patch"`
	Project                string `yaml:"project"`
	MaxSubSuite            *int   `yaml:"max_sub_suite"`
	MainlineMaxSubSuites   *int   `yaml:"mainline_max_sub_suites"`
	Revision               string `yaml:"revision"`
	TaskName               string `yaml:"task_name"`
	TaskID                 string `yaml:"task_id"`
	VersionID              string `yaml:"version_id"`
}

// LoadExpansions reads and parses the expansions file.
func LoadExpansions(path string) (*Expansions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, path, err, "reading expansions file")
	}

	var e Expansions
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, path, err, "parsing expansions file")
	}
	return &e, nil
}

// MaxSubSuites determines the sub-suite cap: max_sub_suite for patch
// builds (default 5), mainline_max_sub_suites otherwise (default 1).
func (e *Expansions) MaxSubSuites() int {
	if e.IsPatch == "true" {
		if e.MaxSubSuite != nil {
			return *e.MaxSubSuite
		}
		return 5
	}
	if e.MainlineMaxSubSuites != nil {
		return *e.MainlineMaxSubSuites
	}
	return 1
}

// ConfigLocationBuildVariant is the per-build-variant mode's output
// archive path: "{build_variant}/{revision}/generate_tasks/{task}_gen-{build_id}.tgz".
func (e *Expansions) ConfigLocationBuildVariant() string {
	generatedTaskName := names.StripGenSuffix(e.TaskName)
	return fmt.Sprintf("%s/%s/generate_tasks/%s_gen-%s.tgz", e.BuildVariant, e.Revision, generatedTaskName, e.BuildID)
}

// ConfigLocationVersion is the version-scoped mode's output archive
// path: "{revision}/generate_tasks/generated-config-{version_id}.tgz".
func (e *Expansions) ConfigLocationVersion() string {
	return fmt.Sprintf("%s/generate_tasks/generated-config-%s.tgz", e.Revision, e.VersionID)
}
