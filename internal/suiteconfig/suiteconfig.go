// Package suiteconfig parses and surgically rewrites resmoke suite
// documents. The document is held as a *yaml.Node — the tagged variant
// tree (mapping/sequence/scalar) that spec §9's design note calls for —
// which keeps the rewriter independent of any particular schema.
//
// Grounded on original_source/src/resmoke.rs (ResmokeSuiteConfig,
// get_fixture_type, update_config), translated from yaml_rust's Yaml enum
// onto gopkg.in/yaml.v3's Node.
package suiteconfig

import (
	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
)

// FixtureType classifies the cluster topology a suite runs under.
type FixtureType string

const (
	Shell FixtureType = "Shell"
	Repl  FixtureType = "Repl"
	Shard FixtureType = "Shard"
	Other FixtureType = "Other"
)

// VersionCombinations returns the fixture's multiversion cross-product
// arm, per spec §4.2.
func (f FixtureType) VersionCombinations() []string {
	switch f {
	case Shard:
		return []string{"new_old_old_new"}
	case Repl:
		return []string{"new_new_old", "new_old_new", "old_new_new"}
	default:
		return []string{""}
	}
}

// Parse decodes a suite document's raw YAML bytes into its root mapping
// node. It fails with InvalidSuiteConfig if the document doesn't parse or
// its root isn't a mapping.
func Parse(suiteName string, data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.InvalidSuiteConfig, suiteName, err, "parsing suite document")
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) != 1 {
			return nil, errs.Newf(errs.InvalidSuiteConfig, suiteName, "empty suite document")
		}
		root = root.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, errs.Newf(errs.InvalidSuiteConfig, suiteName, "expected mapping at root of resmoke config")
	}

	return root, nil
}

// mapGet returns the value node for key in a mapping node, and whether it
// was found.
func mapGet(m *yaml.Node, key string) (*yaml.Node, bool) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], true
		}
	}
	return nil, false
}

// FixtureTypeOf inspects executor.fixture.class and classifies the suite.
// Fails with InvalidSuiteConfig if the root or executor isn't a mapping.
func FixtureTypeOf(root *yaml.Node) (FixtureType, error) {
	if root.Kind != yaml.MappingNode {
		return "", errs.Newf(errs.InvalidSuiteConfig, "", "expected mapping at root of resmoke config")
	}

	executor, ok := mapGet(root, "executor")
	if !ok {
		return Shell, nil
	}
	if executor.Kind != yaml.MappingNode {
		return "", errs.Newf(errs.InvalidSuiteConfig, "", "expected map as executor")
	}

	fixture, ok := mapGet(executor, "fixture")
	if !ok {
		return Shell, nil
	}
	if fixture.Kind != yaml.MappingNode {
		return Other, nil
	}

	class, ok := mapGet(fixture, "class")
	if !ok || class.Kind != yaml.ScalarNode {
		return Other, nil
	}

	switch class.Value {
	case "ShardedClusterFixture":
		return Shard, nil
	case "ReplicaSetFixture":
		return Repl, nil
	default:
		return Other, nil
	}
}

// clone deep-copies a yaml.Node, since yaml.Node.Content holds pointers
// and Rewrite must never mutate the caller's original document.
func clone(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out.Content[i] = clone(c)
	}
	return &out
}

func scalarSeq(values []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	return seq
}

func seqStrings(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, c.Value)
	}
	return out
}

// Rewrite returns a deep copy of root with its selector key modified per
// spec §4.2:
//   - if allTests is non-nil: selector.exclude_files gains allTests'
//     elements (merging with any pre-existing entries); selector.roots is
//     untouched.
//   - else: selector.exclude_files is removed and selector.roots is set to
//     testList verbatim.
//
// Every other top-level key is preserved unchanged.
func Rewrite(root *yaml.Node, testList []string, allTests []string) (*yaml.Node, error) {
	if root.Kind != yaml.MappingNode {
		return nil, errs.Newf(errs.InvalidSuiteConfig, "", "expected mapping at root of resmoke config")
	}

	out := clone(root)

	for i := 0; i+1 < len(out.Content); i += 2 {
		if out.Content[i].Value != "selector" {
			continue
		}

		selector := out.Content[i+1]
		if selector.Kind != yaml.MappingNode {
			return nil, errs.Newf(errs.InvalidSuiteConfig, "", "expected map as selector")
		}

		if allTests != nil {
			existing, ok := mapGet(selector, "exclude_files")
			merged := append([]string{}, seqStrings(existing)...)
			merged = append(merged, allTests...)
			if ok {
				setKey(selector, "exclude_files", scalarSeq(merged))
			} else {
				selector.Content = append(selector.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "exclude_files"},
					scalarSeq(merged),
				)
			}
		} else {
			deleteKey(selector, "exclude_files")
			if _, ok := mapGet(selector, "roots"); ok {
				setKey(selector, "roots", scalarSeq(testList))
			} else {
				selector.Content = append(selector.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "roots"},
					scalarSeq(testList),
				)
			}
		}
	}

	return out, nil
}

func setKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
}

func deleteKey(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}

// Marshal serializes a rewritten document back to YAML bytes.
func Marshal(root *yaml.Node) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "", err, "marshaling suite document")
	}
	return b, nil
}
