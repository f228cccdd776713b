package suiteconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/suiteconfig"
)

const shellSuite = `
test_kind: js_test

selector:
  roots:
    - jstests/auth/*.js
  exclude_files:
    - jstests/auth/repl.js

executor:
  config:
    shell_options:
      nodb: ''
`

const shardedSuite = `
test_kind: js_test

selector:
  roots:
    - jstests/auth/*.js

executor:
  config:
    shell_options:
      nodb: ''
  fixture:
    class: ShardedClusterFixture
    num_shards: 2
`

const replSuite = `
test_kind: js_test

selector:
  roots: []

executor:
  fixture:
    class: ReplicaSetFixture
    num_nodes: 3
`

const otherSuite = `
test_kind: js_test

selector:
  roots: []

executor:
  fixture:
    num_nodes: 3
`

func mustParse(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	root, err := suiteconfig.Parse("s", []byte(doc))
	require.NoError(t, err)
	return root
}

func TestFixtureTypeOf(t *testing.T) {
	ft, err := suiteconfig.FixtureTypeOf(mustParse(t, shellSuite))
	require.NoError(t, err)
	assert.Equal(t, suiteconfig.Shell, ft)

	ft, err = suiteconfig.FixtureTypeOf(mustParse(t, shardedSuite))
	require.NoError(t, err)
	assert.Equal(t, suiteconfig.Shard, ft)

	ft, err = suiteconfig.FixtureTypeOf(mustParse(t, replSuite))
	require.NoError(t, err)
	assert.Equal(t, suiteconfig.Repl, ft)

	ft, err = suiteconfig.FixtureTypeOf(mustParse(t, otherSuite))
	require.NoError(t, err)
	assert.Equal(t, suiteconfig.Other, ft)
}

func TestFixtureVersionCombinations(t *testing.T) {
	assert.Equal(t, []string{"new_old_old_new"}, suiteconfig.Shard.VersionCombinations())
	assert.Equal(t, []string{"new_new_old", "new_old_new", "old_new_new"}, suiteconfig.Repl.VersionCombinations())
	assert.Equal(t, []string{""}, suiteconfig.Shell.VersionCombinations())
	assert.Equal(t, []string{""}, suiteconfig.Other.VersionCombinations())
}

// TestRewritePreservesOtherKeys is P5: rewrite(S, L, none) sets
// selector.roots = L, drops selector.exclude_files, and leaves every other
// top-level key untouched.
func TestRewritePreservesOtherKeys(t *testing.T) {
	root := mustParse(t, shellSuite)

	rewritten, err := suiteconfig.Rewrite(root, []string{"jstests/a.js", "jstests/b.js"}, nil)
	require.NoError(t, err)

	out, err := suiteconfig.Marshal(rewritten)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	selector := decoded["selector"].(map[string]interface{})
	assert.Equal(t, []interface{}{"jstests/a.js", "jstests/b.js"}, selector["roots"])
	_, hasExclude := selector["exclude_files"]
	assert.False(t, hasExclude)
	assert.Equal(t, "js_test", decoded["test_kind"])
	assert.Contains(t, decoded, "executor")
}

// TestRewriteExclusionMerge is P6: rewrite(S, [], E) preserves
// selector.roots and unions E into selector.exclude_files.
func TestRewriteExclusionMerge(t *testing.T) {
	root := mustParse(t, shellSuite)

	rewritten, err := suiteconfig.Rewrite(root, nil, []string{"jstests/c.js"})
	require.NoError(t, err)

	out, err := suiteconfig.Marshal(rewritten)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	selector := decoded["selector"].(map[string]interface{})
	assert.Equal(t, []interface{}{"jstests/auth/*.js"}, selector["roots"])
	assert.ElementsMatch(t, []interface{}{"jstests/auth/repl.js", "jstests/c.js"}, selector["exclude_files"])

	// The original document must be unmodified.
	original, err := suiteconfig.Marshal(root)
	require.NoError(t, err)
	var origDecoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(original, &origDecoded))
	origSelector := origDecoded["selector"].(map[string]interface{})
	assert.Equal(t, []interface{}{"jstests/auth/repl.js"}, origSelector["exclude_files"])
}

func TestParseRejectsNonMappingRoot(t *testing.T) {
	_, err := suiteconfig.Parse("s", []byte("- a\n- b\n"))
	require.Error(t, err)
}
