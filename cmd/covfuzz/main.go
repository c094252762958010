// covfuzz is a coverage-guided greybox fuzzer for native binaries
// instrumented to emit a basic-block trace into shared memory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/covfuzz/covfuzz/internal/cfg"
	"github.com/covfuzz/covfuzz/internal/config"
	"github.com/covfuzz/covfuzz/internal/coverage"
	"github.com/covfuzz/covfuzz/internal/engine"
	"github.com/covfuzz/covfuzz/internal/executor"
	"github.com/covfuzz/covfuzz/internal/orchestrator"
	"github.com/covfuzz/covfuzz/internal/queue"
	"github.com/covfuzz/covfuzz/internal/shm"
	"github.com/covfuzz/covfuzz/internal/stats"
	"github.com/covfuzz/covfuzz/internal/ui"
)

var (
	version = "0.1.0-dev"

	configFile string
	cfgFile    string
	inputDir   string
	outputDir  string
	useCov     []string
	loopBoundK int
	shmSize    int
	verbose    bool
	enableTUI  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "covfuzz -- TARGET [ARGS...]",
		Short: "coverage-guided greybox fuzzer for native binaries",
		Long: `covfuzz drives an instrumented native binary with mutated
inputs, reading basic-block trace feedback from a shared-memory
region after each run and prioritizing inputs that discover new
blocks, edges, or per-function paths.`,
		Args: cobra.ArbitraryArgs,
		RunE: runFuzzer,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&cfgFile, "cfg-file", "", "path to the control-flow-graph JSON")
	rootCmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "seed corpus directory")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "output", "output directory (queue/, crashes/, stats/)")
	rootCmd.Flags().StringSliceVar(&useCov, "use-cov", []string{"block", "edge", "perfunction"}, "coverage metrics the driver projects onto")
	rootCmd.Flags().IntVarP(&loopBoundK, "loop-bound", "k", 2, "loop-iteration peeling bound for per-function path reduction")
	rootCmd.Flags().IntVar(&shmSize, "shm-size", 512*1024*1024, "shared-memory trace buffer size in bytes")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&enableTUI, "tui", false, "run the live dashboard")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("covfuzz version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	syncCmd := &cobra.Command{
		Use:   "sync INSTANCE_DIR...",
		Short: "cross-pollinate the on-disk queues of independent fuzzer instances",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrator.SyncSeedPools(args)
		},
	}
	rootCmd.AddCommand(syncCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFuzzer(cmd *cobra.Command, args []string) error {
	var cfgObj *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfgObj = loaded
	} else {
		cfgObj = config.DefaultConfig()
	}

	if cfgFile != "" {
		cfgObj.Target.CFGFile = cfgFile
	}
	if inputDir != "" {
		cfgObj.Target.InputDir = inputDir
	}
	if outputDir != "" {
		cfgObj.Output.Dir = outputDir
	}
	if len(args) > 0 {
		cfgObj.Target.Command = args
	}
	if cmd.Flags().Changed("use-cov") {
		cfgObj.Engine.UseCov = useCov
	}
	if cmd.Flags().Changed("loop-bound") {
		cfgObj.Engine.LoopBoundK = loopBoundK
	}
	if cmd.Flags().Changed("shm-size") {
		cfgObj.Engine.ShmSize = shmSize
	}
	cfgObj.Output.Verbose = cfgObj.Output.Verbose || verbose
	cfgObj.Output.EnableTUI = cfgObj.Output.EnableTUI || enableTUI

	if err := cfgObj.Validate(); err != nil {
		return err
	}
	if len(cfgObj.Target.Command) == 0 {
		return fmt.Errorf("covfuzz: no target command given (pass it after --)")
	}
	if cfgObj.Target.CFGFile == "" {
		return fmt.Errorf("covfuzz: --cfg-file is required")
	}
	if cfgObj.Target.InputDir == "" {
		return fmt.Errorf("covfuzz: --input-dir is required")
	}

	logLevel := slog.LevelInfo
	if cfgObj.Output.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	idx, err := cfg.Load(cfgObj.Target.CFGFile)
	if err != nil {
		return err
	}

	region, err := shm.New(cfgObj.Engine.ShmSize)
	if err != nil {
		return fmt.Errorf("covfuzz: allocating shared memory: %w", err)
	}
	defer region.Close()

	exec, err := executor.New(cfgObj.Target.Command, region.Path())
	if err != nil {
		return err
	}

	qdir, err := queue.Open(cfgObj.Output.Dir)
	if err != nil {
		return err
	}

	recorder, err := stats.NewRecorder(cfgObj.Output.Dir)
	if err != nil {
		return err
	}

	agg := coverage.NewAggregator(
		coverage.NewBlockCoverage(),
		coverage.NewEdgeCoverage(),
		coverage.NewRawPathCoverage(),
		coverage.NewPerFunctionPathCoverage(idx, cfgObj.Engine.LoopBoundK, logger),
	)

	loop := engine.New(engine.Deps{
		Region:     region,
		Aggregator: agg,
		UseCov:     cfgObj.Engine.UseCov,
		Executor:   exec,
		Queue:      qdir,
		Recorder:   recorder,
		Logger:     logger,
		Rand:       rand.New(rand.NewSource(1)),
	})
	defer func() {
		if err := loop.Flush(); err != nil {
			logger.Error("failed to flush stats", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfgObj.Output.EnableTUI {
		dash := ui.NewDashboard()
		dash.SetTargetCmd(fmt.Sprintf("%v", cfgObj.Target.Command))
		dash.Start()
		go func() {
			if err := loop.Run(ctx, cfgObj.Target.InputDir); err != nil {
				logger.Error("fuzzing loop stopped", "error", err)
			}
			cancel()
		}()
		return ui.Run(dash)
	}

	logger.Info("starting fuzzer", "target", cfgObj.Target.Command, "output", cfgObj.Output.Dir)
	if err := loop.Run(ctx, cfgObj.Target.InputDir); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("fuzzer stopped", "level", loop.Level(), "queue_depth", loop.QueueLen())
	return nil
}
