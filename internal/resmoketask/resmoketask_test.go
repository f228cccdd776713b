package resmoketask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
	"github.com/mongodb/evg-resmoke-gen/internal/resmoketask"
)

func suite() model.GeneratedSuite {
	return model.GeneratedSuite{
		TaskName:  "jsCore",
		SuiteName: "core",
		SubSuites: []model.SubSuite{
			{Name: "jsCore_0_linux-64", TestList: []string{"a.js"}},
			{Name: "jsCore_1_linux-64", TestList: []string{"b.js"}},
		},
	}
}

func TestGenerateOneTaskPerSubSuite(t *testing.T) {
	tasks := resmoketask.Generate(suite(), resmoketask.Params{
		ResmokeArgs:    "--log=file",
		ConfigLocation: option.Some("bucket/path"),
		ResmokeJobsMax: option.Some(2),
	})

	require.Len(t, tasks, 2)
	assert.Equal(t, "jsCore_0_linux-64", tasks[0].Name)
	require.Len(t, tasks[0].Dependencies, 1)
	assert.Equal(t, "archive_dist_test", tasks[0].Dependencies[0].Name)

	cmd := tasks[0].Commands[len(tasks[0].Commands)-1]
	assert.Equal(t, "run generated tests", cmd.FunctionName)
	assert.Equal(t, "--originSuite=jsCore_0_linux-64 --log=file", cmd.Vars["resmoke_args"])
	assert.Equal(t, "generated_resmoke_config/jsCore_0_linux-64.yml", cmd.Vars["suite"])
	assert.Equal(t, "bucket/path", cmd.Vars["gen_task_config_location"])
	assert.Equal(t, "2", cmd.Vars["resmoke_jobs_max"])
	assert.Equal(t, "false", cmd.Vars["require_multiversion_setup"])
}

func TestGenerateMultiversionCommandSequence(t *testing.T) {
	tasks := resmoketask.Generate(suite(), resmoketask.Params{RequireMultiversionSetup: true})
	var funcNames []string
	for _, cmd := range tasks[0].Commands {
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
		"run generated tests",
	}, funcNames)
}

// TestTaskRefsDeactivated is spec P9: every generated task ref starts
// deactivated so the generator task controls activation.
func TestTaskRefsDeactivated(t *testing.T) {
	refs := resmoketask.TaskRefs(suite())
	require.Len(t, refs, 2)
	for i, ref := range refs {
		assert.Equal(t, suite().SubSuites[i].Name, ref.Name)
		require.NotNil(t, ref.Activate)
		assert.False(t, *ref.Activate)
	}
}
