package writerpool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongodb/evg-resmoke-gen/internal/model"
	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe/resmokeprobetest"
	"github.com/mongodb/evg-resmoke-gen/internal/writerpool"
)

const suiteDoc = `
selector:
  roots:
    - jstests/core/*.js
executor:
  fixture:
    class: ReplicaSetFixture
`

func TestWriteProducesSubSuiteAndMiscFiles(t *testing.T) {
	dir := t.TempDir()
	fake := &resmokeprobetest.Fake{
		SuiteDocs: map[string][]byte{"core": []byte(suiteDoc)},
	}

	pool := writerpool.New(dir, fake, 2)

	gen := model.GeneratedSuite{
		TaskName:  "jsCore",
		SuiteName: "core",
		SubSuites: []model.SubSuite{
			{Name: "jsCore_0_linux-64", TestList: []string{"jstests/core/a.js"}},
			{Name: "jsCore_1_linux-64", TestList: []string{"jstests/core/b.js"}},
		},
	}

	require.NoError(t, pool.Write(context.Background(), gen))
	require.NoError(t, pool.Flush(context.Background()))
	require.NoError(t, pool.Close())

	for _, name := range []string{"jsCore_0_linux-64.yml", "jsCore_1_linux-64.yml", "jsCore_misc.yml"} {
		body, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(body), "generated from task jsCore")
	}

	miscBody, err := os.ReadFile(filepath.Join(dir, "jsCore_misc.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(miscBody), "exclude_files")
	assert.Contains(t, string(miscBody), "jstests/core/a.js")
	assert.Contains(t, string(miscBody), "jstests/core/b.js")
}
