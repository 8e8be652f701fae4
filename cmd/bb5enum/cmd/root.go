// Package cmd implements the bb5enum command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bb5enum/bb5enum/internal/driver"
	"github.com/bb5enum/bb5enum/internal/ioformat"
	"github.com/bb5enum/bb5enum/internal/resume"
	"github.com/bb5enum/bb5enum/pkg/config"
	"github.com/bb5enum/bb5enum/pkg/machine"
	"github.com/bb5enum/bb5enum/pkg/pprof"
	"github.com/bb5enum/bb5enum/pkg/utils"
)

var (
	verbose    bool
	configPath string
	logger     utils.Logger

	pprofEnabled bool
	pprofDir     string

	pprofCollector *pprof.Collector
)

var rootCmd = &cobra.Command{
	Use:   "bb5enum",
	Short: "Enumerate and classify 5-state, 2-symbol Turing machines",
	Long: `bb5enum exhaustively enumerates tree-normal-form 5-state, 2-symbol
deterministic Turing machines, classifying each candidate as
Halt, Loop, Undecided, or Irrelevant via bounded simulation, and checkpoints
progress to a resume file so a run can be killed and restarted.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		if pprofEnabled {
			cfg := pprof.DefaultConfig()
			cfg.Enabled = true
			cfg.OutputDir = pprofDir
			if err := cfg.Validate(); err != nil {
				return err
			}
			collector, err := pprof.NewCollector(cfg)
			if err != nil {
				return err
			}
			if err := collector.Start(); err != nil {
				return err
			}
			pprofCollector = collector
			logger.Info("pprof collection started (dir: %s)", cfg.OutputDir)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofCollector != nil {
			logger.Info("stopping pprof collection")
			if err := pprofCollector.Stop(); err != nil {
				logger.Warn("failed to stop pprof collector: %v", err)
			}
		}
		return nil
	},
	RunE: runEnumerate,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to bb5enum.yaml config file")

	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "enable self-profiling")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "output directory for self-profiling data")

	binName := filepath.Base(os.Args[0])
	rootCmd.Example = `  # start or resume a run using the default resume/log file locations
  ` + binName + `

  # run with a specific config file and verbose logging
  ` + binName + ` --config ./bb5enum.yaml -v`
}

func runEnumerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resumeFile, err := os.OpenFile(cfg.IO.ResumeFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("opening resume file %q: %w", cfg.IO.ResumeFile, err)
	}
	defer resumeFile.Close()

	logFile, err := os.OpenFile(cfg.IO.LogFile, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %q: %w", cfg.IO.LogFile, err)
	}
	defer logFile.Close()

	logInfo, err := logFile.Stat()
	if err != nil {
		return fmt.Errorf("statting log file: %w", err)
	}

	resumeInfo, err := resumeFile.Stat()
	if err != nil {
		return fmt.Errorf("statting resume file: %w", err)
	}

	var r *resume.Resume
	if resumeInfo.Size() == 0 {
		r = &resume.Resume{}
		logger.Info("resume file %q is empty, starting a new run", cfg.IO.ResumeFile)
	} else {
		r, err = resume.Read(resumeFile)
		if err != nil {
			return fmt.Errorf("reading resume file: %w", err)
		}
		logger.Info("continuing previous run: %d machines already classified, %d pending tasks",
			r.Stats.Total(), len(r.Tasks))
	}

	if err := resume.CrossCheck(r, logInfo.Size(), int64(ioformat.LogEntryLen)); err != nil {
		return fmt.Errorf("resume/log consistency check failed: %w", err)
	}

	seed := r.Tasks
	if r.Stats.Total() == 0 && len(seed) == 0 {
		seed = []machine.Task{{Node: machine.RootNode(), Branch: machine.RootBranch()}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt, draining and checkpointing (interrupt again to force exit)")
		cancel()
		<-sigCh
		logger.Warn("received second interrupt, exiting without checkpoint")
		driver.ForceExit()
	}()

	clock := utils.NewRealClock()
	d := driver.New(cfg.Driver, logger, clock, seed, r.Stats)
	logWriter := ioformat.NewLogWriter(logFile)

	start := time.Now()
	finalStats, leftover, runErr := d.Run(ctx, logWriter)
	if runErr != nil && runErr != context.Canceled {
		return fmt.Errorf("driver run failed: %w", runErr)
	}

	if err := resume.RewriteFile(resumeFile, &resume.Resume{Stats: finalStats, Tasks: leftover}); err != nil {
		return fmt.Errorf("writing resume checkpoint: %w", err)
	}

	logger.Info("stopped after %s: halt=%d loop=%d undecided=%d irrelevant=%d, %d tasks pending",
		time.Since(start).Round(time.Second), finalStats.Halt, finalStats.Loop,
		finalStats.Undecided, finalStats.Irrelevant, len(leftover))

	return nil
}
