// Package model holds the data-model entities shared across the
// splitter, fuzzer generator, resmoke task generator, writer pool, memo
// actor, and pipeline orchestrator (spec §3).
package model

// SubSuite is a partition assigned to a single sub-task of a split
// generator task. Immutable once constructed.
type SubSuite struct {
	Name     string
	TestList []string
}

// GeneratedSuite is the splitter's output for one generator task: a
// stable set of sub-suites, at least one when the source test list is
// non-empty.
type GeneratedSuite struct {
	TaskName  string
	SuiteName string
	SubSuites []SubSuite
}

// AllTests returns the union of every sub-suite's test list, in
// sub-suite order — the "all_tests" exclusion set for the misc file
// (spec §4.8).
func (g GeneratedSuite) AllTests() []string {
	var out []string
	for _, s := range g.SubSuites {
		out = append(out, s.TestList...)
	}
	return out
}
