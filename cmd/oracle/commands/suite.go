/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: suite.go
Description: The infer-* suite commands. Each builds the cases of its mode, runs them
against the configured engine, prints one verdict line per case and optionally records
the run in the results ledger and a report file.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/kleascm/akaylee-oracle/pkg/execution"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/kleascm/akaylee-oracle/pkg/reference"
	"github.com/kleascm/akaylee-oracle/pkg/reporting"
	"github.com/kleascm/akaylee-oracle/pkg/results"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSuiteCommand(opts *Options, mode core.Mode, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer-" + string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxSize, _ := cmd.Flags().GetUint64("max-size")
			debug, _ := cmd.Flags().GetBool("debug")
			return opts.runSuite(cmd, mode, maxSize, debug)
		},
	}
	cmd.Flags().Uint64("max-size", mode.DefaultMaxSize(), "Largest latent space size to enumerate")
	cmd.Flags().Bool("debug", false, "Run cases sequentially and keep the scratch directory of failed cases")
	return cmd
}

// newSampler selects the reference sampler or the external engine.
func newSampler(cfg *core.SuiteConfig, logger *logrus.Logger) interfaces.Sampler {
	if cfg.Engine.Path == core.BuiltinEngine {
		return reference.NewSampler(logger)
	}
	return execution.NewEngineSampler(logger)
}

func (o *Options) runSuite(cmd *cobra.Command, mode core.Mode, maxSize uint64, debug bool) error {
	cfg, err := o.SuiteConfig()
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}

	logger, err := o.SetupLogging(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	cases, err := core.BuildCases(mode, maxSize, cfg)
	if err != nil {
		return err
	}

	suite, err := core.NewSuite(cfg, newSampler(cfg, logger.GetLogger()), logger)
	if err != nil {
		return err
	}
	suite.AddReporter(core.NewLineReporter(cmd.OutOrStdout()))
	suite.AddReporter(core.NewLoggerReporter(logger))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := suite.Run(ctx, mode, maxSize, cases)
	if summary != nil {
		// Recording uses a fresh context so an interrupted run is still kept.
		if err := o.recordRun(context.Background(), logger, summary, runErr); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}
	return summary.Err()
}

func (o *Options) recordRun(ctx context.Context, logger *logging.Logger, summary *core.Summary, runErr error) error {
	if path := o.v.GetString("results_db"); path != "" {
		store, err := results.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open results ledger: %w", err)
		}
		defer store.Close()
		if err := store.RecordSummary(ctx, summary); err != nil {
			return err
		}
	}
	report := reporting.BuildReport(summary, runErr)
	generator := reporting.NewGenerator(logger.GetLogger())
	if path := o.v.GetString("report"); path != "" {
		if err := generator.Write(path, report); err != nil {
			return err
		}
	}
	if dir := o.v.GetString("report_dir"); dir != "" {
		if _, err := generator.Archive(dir, report); err != nil {
			return err
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
