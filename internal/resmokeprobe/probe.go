// Package resmokeprobe wraps the resmoke.py test-runner CLI as the
// external test-discovery collaborator described in spec §4.3. It is a
// thin os/exec wrapper; every subprocess failure is fatal.
//
// Grounded on original_source/src/resmoke.rs (ResmokeProxy,
// MultiversionConfig, ResmokeSuiteConfig::read_suite_config).
package resmokeprobe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
	"github.com/mongodb/evg-resmoke-gen/internal/gen/log"
	"github.com/mongodb/evg-resmoke-gen/internal/suiteconfig"
)

// TestDiscovery is the external test-runner probe's contract. It is
// implemented by Proxy and satisfied by a fake in tests.
type TestDiscovery interface {
	Discover(ctx context.Context, suite string) ([]string, error)
	MultiversionConfig(ctx context.Context) (MultiversionConfig, error)
	SuiteConfig(ctx context.Context, suite string) (*yaml.Node, error)
}

// MultiversionConfig is resmoke's multiversion-config document.
type MultiversionConfig struct {
	LastVersions []string `yaml:"last_versions"`
}

type discoveryOutput struct {
	SuiteName string   `yaml:"suite_name"`
	Tests     []string `yaml:"tests"`
}

// Proxy shells out to "python3 buildscripts/resmoke.py ..." by default, mirroring
// ResmokeProxy's use of cmd_lib::run_fun.
type Proxy struct {
	PythonPath   string // defaults to "python3"
	ResmokeEntry string // defaults to "buildscripts/resmoke.py"
}

// NewProxy builds a Proxy with mongo-tools-repo-relative defaults.
func NewProxy() *Proxy {
	return &Proxy{PythonPath: "python3", ResmokeEntry: "buildscripts/resmoke.py"}
}

func (p *Proxy) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.PythonPath, append([]string{p.ResmokeEntry}, args...)...)
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, errs.Wrap(errs.ExternalProcess, args[0], err, "running resmoke")
	}

	return stdout.Bytes(), nil
}

// Discover returns the ordered test file list resmoke reports for suite,
// filtered to paths that exist on the local filesystem.
func (p *Proxy) Discover(ctx context.Context, suite string) ([]string, error) {
	start := time.Now()

	out, err := p.run(ctx, "test-discovery", "--suite", suite)
	if err != nil {
		return nil, err
	}

	log.Debugf(suite, "resmoke test discovery finished in %s", time.Since(start))

	var decoded discoveryOutput
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		return nil, errs.Wrap(errs.ExternalProcess, suite, err, "parsing test-discovery output")
	}

	existing := make([]string, 0, len(decoded.Tests))
	for _, t := range decoded.Tests {
		if _, err := os.Stat(t); err == nil {
			existing = append(existing, t)
		}
	}

	return existing, nil
}

// MultiversionConfig returns resmoke's reported last_versions list.
func (p *Proxy) MultiversionConfig(ctx context.Context) (MultiversionConfig, error) {
	out, err := p.run(ctx, "multiversion-config")
	if err != nil {
		return MultiversionConfig{}, err
	}

	var cfg MultiversionConfig
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		return MultiversionConfig{}, errs.Wrap(errs.ExternalProcess, "", err, "parsing multiversion-config output")
	}

	return cfg, nil
}

// SuiteConfig returns the raw suite document, parsed into suiteconfig's
// tagged-tree representation.
func (p *Proxy) SuiteConfig(ctx context.Context, suite string) (*yaml.Node, error) {
	out, err := p.run(ctx, "suiteconfig", "--suite", suite)
	if err != nil {
		return nil, err
	}

	return suiteconfig.Parse(suite, out)
}
