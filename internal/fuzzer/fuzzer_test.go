package fuzzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongodb/evg-resmoke-gen/internal/fuzzer"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
)

func baseParams() fuzzer.Params {
	return fuzzer.Params{
		TaskName:          "agg_fuzzer",
		Variant:           "linux-64",
		Suite:             "agg_fuzzer",
		NumFiles:          10,
		NumTasks:          3,
		ResmokeArgs:       "--log=file",
		NpmCommand:        "agg-fuzzer",
		ContinueOnFailure: true,
		ResmokeJobsMax:    1,
		ShouldShuffle:     false,
		TimeoutSecs:       1800,
		ConfigLocation:    "bucket/path/agg_fuzzer_gen.json",
	}
}

// TestGenerateSimple is spec scenario 4: no multiversion, NumTasks sub-tasks.
func TestGenerateSimple(t *testing.T) {
	p := baseParams()
	tasks := fuzzer.Generate(p)

	require.Len(t, tasks, 3)
	assert.Equal(t, "agg_fuzzer_0_linux-64", tasks[0].Name)
	assert.Equal(t, "agg_fuzzer_1_linux-64", tasks[1].Name)
	assert.Equal(t, "agg_fuzzer_2_linux-64", tasks[2].Name)

	for _, task := range tasks {
		require.Len(t, task.Dependencies, 1)
		assert.Equal(t, "archive_dist_test_debug", task.Dependencies[0].Name)

		var funcNames []string
		for _, cmd := range task.Commands {
			if cmd.FunctionName != "" {
				funcNames = append(funcNames, cmd.FunctionName)
			}
		}
		assert.Equal(t, []string{
			"do setup",
			"configure evergreen api credentials",
			"setup jstestfuzz",
			"run jstestfuzz",
			"run generated tests",
		}, funcNames)
	}

	lastCmd := tasks[0].Commands[len(tasks[0].Commands)-1]
	assert.Equal(t, "agg_fuzzer", lastCmd.Vars["suite"])
	assert.NotContains(t, lastCmd.Vars, "multiversion_exclude_tags_version")
}

// TestGenerateMultiversion is spec scenario 5: multiversion cross product
// over last_versions x version combinations (P8).
func TestGenerateMultiversion(t *testing.T) {
	p := baseParams()
	p.RequireMultiversionSetup = true
	p.LastVersions = []string{"last_lts"}
	p.VersionCombinations = []string{"new_new_old", "new_old_new", "old_new_new"}
	p.NumTasks = 2

	tasks := fuzzer.Generate(p)

	require.Len(t, tasks, len(p.LastVersions)*len(p.VersionCombinations)*p.NumTasks)

	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	assert.Contains(t, names, "agg_fuzzer_last_lts_new_new_old_0_linux-64")
	assert.Contains(t, names, "agg_fuzzer_last_lts_new_new_old_1_linux-64")
	assert.Contains(t, names, "agg_fuzzer_last_lts_old_new_new_1_linux-64")

	for _, task := range tasks {
		var funcNames []string
		for _, cmd := range task.Commands {
			if cmd.FunctionName != "" {
				funcNames = append(funcNames, cmd.FunctionName)
			}
		}
		assert.Equal(t, []string{
			"git get project no modules",
			"add git tag",
			"do setup",
			"configure evergreen api credentials",
			"do multiversion setup",
			"setup jstestfuzz",
			"run jstestfuzz",
			"run generated tests",
		}, funcNames)

		lastCmd := task.Commands[len(task.Commands)-1]
		assert.Equal(t, "agg_fuzzer_last_lts_new_new_old", lastCmd.Vars["suite"],
			"suite var for at least one combination should reflect the cross-product name")
		break
	}
}

func TestJstestfuzzVarsIncludesExtra(t *testing.T) {
	p := baseParams()
	p.JstestfuzzVars = option.Some("--numSubDirs=2")
	tasks := fuzzer.Generate(p)
	cmd := tasks[0].Commands[3]
	assert.Equal(t, "run jstestfuzz", cmd.FunctionName)
	assert.Equal(t, "--numGeneratedFiles 10 --numSubDirs=2", cmd.Vars["jstestfuzz_vars"])
}
