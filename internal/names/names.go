// Package names computes the canonical identifiers used throughout the
// pipeline: generated sub-task/sub-suite names and the "_gen" suffix
// stripping applied to a generator task's own name.
//
// Grounded on original_source/src/util.rs (name_generated_task) and
// original_source/src/taskname.rs (name_sub_suite, remove_gen_suffix).
package names

import (
	"fmt"
	"math"
	"strings"

	"github.com/mongodb/evg-resmoke-gen/internal/option"
)

const genSuffix = "_gen"

// NameGeneratedTask builds a sub-task/sub-suite name.
//
// If index is None, the result is "{parent}_misc", optionally suffixed with
// "_{variant}". Otherwise the result is "{parent}_{index:0w}", zero-padded
// to width w = max(1, ceil(log10(total))), again optionally suffixed.
//
// total must be present whenever index is; NameGeneratedTask panics
// otherwise, mirroring the original's unwrap() on total_tasks.
func NameGeneratedTask(parent string, index, total option.Option[int], variant option.Option[string]) string {
	suffix := ""
	if v, ok := variant.Get(); ok {
		suffix = "_" + v
	}

	idx, hasIdx := index.Get()
	if !hasIdx {
		return fmt.Sprintf("%s_misc%s", parent, suffix)
	}

	tot := total.MustGet()
	width := partitionWidth(tot)

	return fmt.Sprintf("%s_%0*d%s", parent, width, idx, suffix)
}

// partitionWidth returns the zero-pad width for an index drawn from
// [0, total), i.e. ceil(log10(total)), floored at 1.
func partitionWidth(total int) int {
	w := int(math.Ceil(math.Log10(float64(total))))
	if w < 1 {
		w = 1
	}
	return w
}

// NameSubSuite builds the splitter's sub-suite name:
// "{task_name}_{i}_{variant_name}", where i is the 0-based partition index.
func NameSubSuite(taskName string, index, total int, variantName string) string {
	return NameGeneratedTask(
		taskName,
		option.Some(index),
		option.Some(total),
		option.Some(variantName),
	)
}

// StripGenSuffix removes a trailing "_gen", if present.
func StripGenSuffix(taskName string) string {
	return strings.TrimSuffix(taskName, genSuffix)
}
