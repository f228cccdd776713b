// Package main wires the generator's collaborators — project/expansion
// loading, the history client, the resmoke probe, the splitter, the
// writer pool, the memo actor, and the pipeline orchestrator — behind a
// two-subcommand CLI, grounded on
// mongodump_passthrough/task-generator/{cli/app.go,main.go}'s shape:
// package-level flag/command vars plus an Action that builds and runs
// one request object.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
	"github.com/mongodb/evg-resmoke-gen/internal/gen/log"
	"github.com/mongodb/evg-resmoke-gen/internal/history"
	"github.com/mongodb/evg-resmoke-gen/internal/memo"
	"github.com/mongodb/evg-resmoke-gen/internal/pipeline"
	"github.com/mongodb/evg-resmoke-gen/internal/project"
	"github.com/mongodb/evg-resmoke-gen/internal/resmokeprobe"
	"github.com/mongodb/evg-resmoke-gen/internal/split"
	"github.com/mongodb/evg-resmoke-gen/internal/writerpool"
)

var (
	evgProjectLocationFlag = &cli.StringFlag{
		Name:     "evg-project-location",
		Usage:    "path or URL accepted by 'evergreen evaluate' for the project's parsed YAML",
		Required: true,
	}

	expansionFileFlag = &cli.StringFlag{
		Name:     "expansion-file",
		Usage:    "path to the run's expansions.yml",
		Required: true,
	}

	evgAuthFileFlag = &cli.StringFlag{
		Name:     "evg-auth-file",
		Usage:    "path to the .evergreen.yml-style file carrying the test-stats API user/key",
		Required: true,
	}

	configDirFlag = &cli.StringFlag{
		Name:  "config-dir",
		Usage: "directory generated suite YAML files are written into",
		Value: "generated_resmoke_config",
	}

	outputNameFlag = &cli.StringFlag{
		Name:  "output-name",
		Usage: "base name (without .json) of the generated task-definition file; build-variant mode only",
		Value: "generated_tasks",
	}

	maxWorkersFlag = &cli.IntFlag{
		Name:  "max-workers",
		Usage: "number of suite-file writer goroutines",
		Value: 0, // 0 defers to writerpool's own default
	}

	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug-level logging",
	}

	sharedFlags = []cli.Flag{
		evgProjectLocationFlag,
		expansionFileFlag,
		evgAuthFileFlag,
		configDirFlag,
		outputNameFlag,
		maxWorkersFlag,
		verboseFlag,
	}

	buildVariantCommand = &cli.Command{
		Name:   "build-variant",
		Usage:  "generate one build variant's generator tasks in isolation",
		Flags:  sharedFlags,
		Action: runMode(pipeline.BuildVariantMode),
	}

	versionCommand = &cli.Command{
		Name:   "version",
		Usage:  "generate every build variant in the project, deactivated, for later per-variant generation",
		Flags:  sharedFlags,
		Action: runMode(pipeline.VersionMode),
	}
)

// App is the module's CLI entrypoint, grounded on
// mongodump_passthrough/task-generator/cli/app.go's App var.
var App = &cli.App{
	Name:  "evg-resmoke-gen",
	Usage: "generate Evergreen resmoke suite and task definitions",
	Commands: []*cli.Command{
		buildVariantCommand,
		versionCommand,
	},
}

func runMode(mode pipeline.Mode) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		return run(cctx.Context, mode, cctx)
	}
}

func run(ctx context.Context, mode pipeline.Mode, cctx *cli.Context) error {
	if cctx.Bool("verbose") {
		log.SetGlobalVerbosity(log.Debug)
	}

	expansions, err := project.LoadExpansions(cctx.String("expansion-file"))
	if err != nil {
		return err
	}

	projectConfig, err := project.Load(ctx, cctx.String("evg-project-location"))
	if err != nil {
		return err
	}

	authInfo, err := history.LoadAuthInfo(cctx.String("evg-auth-file"))
	if err != nil {
		return err
	}

	configDir := cctx.String("config-dir")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return errs.Wrap(errs.IO, configDir, err, "creating config directory")
	}

	historyClient := history.NewClient(authInfo)
	historyService := history.NewService(historyClient, expansions.Project)

	probe := resmokeprobe.NewProxy()

	writerPool := writerpool.New(configDir, probe, cctx.Int("max-workers"))
	defer func() {
		if cerr := writerPool.Close(); cerr != nil {
			log.Error("writer-pool", cerr)
		}
	}()

	splitter := split.New(probe, split.Config{NSuites: expansions.MaxSubSuites()})
	memoActor := memo.New(historyService, splitter, writerPool)
	defer memoActor.Close()

	in := pipeline.Input{
		Project:    projectConfig,
		Expansions: expansions,
		Memo:       memoActor,
		Writer:     writerPool,
		Probe:      probe,
		ConfigDir:  configDir,
		OutputName: cctx.String("output-name"),
	}

	path, err := pipeline.Run(ctx, mode, in)
	if err != nil {
		return err
	}

	log.Infof("pipeline", "wrote %s", path)
	return nil
}

func main() {
	if err := App.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
