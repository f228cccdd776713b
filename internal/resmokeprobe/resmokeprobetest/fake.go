// Package resmokeprobetest provides an in-memory TestDiscovery double for
// exercising the splitter, pipeline, and writer-pool packages without
// shelling out to resmoke.py.
package resmokeprobetest

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe"
	"github.com/mongodb/evg-resmoke-gen/internal/suiteconfig"
)

// Fake is a resmokeprobe.TestDiscovery backed by fixed, in-memory data.
type Fake struct {
	Tests              map[string][]string
	Multiversion       resmokeprobe.MultiversionConfig
	SuiteDocs          map[string][]byte
	DiscoverCalls      int
	SuiteConfigCalls   int
}

var _ resmokeprobe.TestDiscovery = (*Fake)(nil)

func (f *Fake) Discover(_ context.Context, suite string) ([]string, error) {
	f.DiscoverCalls++
	return append([]string(nil), f.Tests[suite]...), nil
}

func (f *Fake) MultiversionConfig(_ context.Context) (resmokeprobe.MultiversionConfig, error) {
	return f.Multiversion, nil
}

func (f *Fake) SuiteConfig(_ context.Context, suite string) (*yaml.Node, error) {
	f.SuiteConfigCalls++
	return suiteconfig.Parse(suite, f.SuiteDocs[suite])
}
