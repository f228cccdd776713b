package names_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mongodb/evg-resmoke-gen/internal/names"
	"github.com/mongodb/evg-resmoke-gen/internal/option"
)

func TestNameGeneratedTask(t *testing.T) {
	cases := []struct {
		parent   string
		index    option.Option[int]
		total    option.Option[int]
		variant  option.Option[string]
		expected string
	}{
		{"task", option.Some(0), option.Some(10), option.None[string](), "task_0"},
		{"task", option.Some(42), option.Some(1001), option.None[string](), "task_0042"},
		{"task", option.None[int](), option.Some(1001), option.None[string](), "task_misc"},
		{"task", option.None[int](), option.None[int](), option.None[string](), "task_misc"},
		{"task", option.Some(0), option.Some(10), option.Some("variant"), "task_0_variant"},
		{"task", option.Some(42), option.Some(1999), option.Some("variant"), "task_0042_variant"},
		{"task", option.None[int](), option.None[int](), option.Some("variant"), "task_misc_variant"},
	}

	for _, c := range cases {
		got := names.NameGeneratedTask(c.parent, c.index, c.total, c.variant)
		assert.Equal(t, c.expected, got)
	}
}

func TestNameSubSuite(t *testing.T) {
	assert.Equal(t, "task_0_vA", names.NameSubSuite("task", 0, 3, "vA"))
	assert.Equal(t, "hello_042_world", names.NameSubSuite("hello", 42, 314, "world"))
}

func TestStripGenSuffix(t *testing.T) {
	assert.Equal(t, "task_name", names.StripGenSuffix("task_name"))
	assert.Equal(t, "task_name", names.StripGenSuffix("task_name_gen"))
	assert.Equal(t, "task_name_", names.StripGenSuffix("task_name_"))
}
