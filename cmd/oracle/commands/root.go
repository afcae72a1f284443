/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: root.go
Description: Root command of the posterior enumeration oracle. Owns the viper instance that
merges flags, the optional config file and ORACLE_ environment variables into the suite
and logger configuration shared by every subcommand.
*/

package commands

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Options is shared by every subcommand
type Options struct {
	v *viper.Viper
}

// NewRootCommand creates the oracle command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&Options{v: viper.New()})
}

func newRootCommand(opts *Options) *cobra.Command {
	defaults := core.DefaultSuiteConfig()

	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Posterior enumeration oracle for cross-categorization inference",
		Long: `The oracle checks a cross-categorization inference engine against the exact
posterior of tiny synthetic datasets. Every latent state of a small dataset is enumerated,
the engine draws samples, and a multinomial goodness-of-fit test decides whether the
sampled frequencies match the posterior.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.LoadConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Configuration file path (yaml, toml or json)")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "custom", "Log format (text, json, custom)")
	flags.String("log-dir", "", "Also write logs to a timestamped file in this directory")
	flags.String("engine", defaults.Engine.Path, `Inference engine binary, or "builtin" for the reference sampler`)
	flags.StringSlice("engine-args", nil, "Extra arguments passed to the engine before the file paths")
	flags.Duration("engine-timeout", defaults.Engine.Timeout, "Maximum duration of one engine run")
	flags.Int("workers", runtime.NumCPU(), "Number of cases run in parallel")
	flags.Uint64("seed", defaults.Seed, "Seed for model and row generation")
	flags.String("scratch-root", "", "Directory for per-case scratch directories (default system temp)")
	flags.String("report", "", "Write a run summary here (.yaml or .html)")
	flags.String("report-dir", "", "Archive a timestamped YAML summary of every run under this directory")
	flags.String("results-db", "", "Record run results in this SQLite ledger")

	bindings := map[string]string{
		"config":         "config",
		"log.level":      "log-level",
		"log.format":     "log-format",
		"log.output_dir": "log-dir",
		"engine.path":    "engine",
		"engine.args":    "engine-args",
		"engine.timeout": "engine-timeout",
		"workers":        "workers",
		"seed":           "seed",
		"scratch_root":   "scratch-root",
		"report":         "report",
		"report_dir":     "report-dir",
		"results_db":     "results-db",
	}
	for key, flag := range bindings {
		opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newSuiteCommand(opts, core.ModeCats,
		"Check inference of cross-cat row clusterings with fixed kinds"))
	cmd.AddCommand(newSuiteCommand(opts, core.ModeKinds,
		"Check inference of both kinds and row clusterings"))
	cmd.AddCommand(newSuiteCommand(opts, core.ModeFeatureHypers,
		"Check inference of feature hyperparameters over a grid"))
	cmd.AddCommand(newSuiteCommand(opts, core.ModeTopologyHypers,
		"Check inference of the kind-level clustering hyperparameters"))
	cmd.AddCommand(newSuiteCommand(opts, core.ModeClusteringHypers,
		"Check inference of the row clustering hyperparameters"))
	cmd.AddCommand(newDatasetsCommand())
	cmd.AddCommand(newListFeaturesCommand())
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

// LoadConfig reads the config file when one is given and enables ORACLE_ environment overrides
func (o *Options) LoadConfig() error {
	o.v.SetEnvPrefix("ORACLE")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()

	// Scalar keys become visible to Unmarshal even when only set through the environment.
	defaults := core.DefaultSuiteConfig()
	o.v.SetDefault("truncate_count", defaults.TruncateCount)
	o.v.SetDefault("min_goodness_of_fit", defaults.MinGoodnessOfFit)
	o.v.SetDefault("score_tolerance", defaults.ScoreTolerance)
	o.v.SetDefault("samples_per_latent", defaults.SamplesPerLatent)
	o.v.SetDefault("sample_skip", defaults.SampleSkip)
	o.v.SetDefault("kind_iterations", defaults.KindIterations)
	o.v.SetDefault("max_latents", defaults.MaxLatents)
	o.v.SetDefault("vector_cutoff", defaults.VectorCutoff)
	o.v.SetDefault("debug", defaults.Debug)

	if configFile := o.v.GetString("config"); configFile != "" {
		o.v.SetConfigFile(configFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// SuiteConfig merges defaults, the config file, the environment and flags, then expands
// configured grid builders into the hyperprior
func (o *Options) SuiteConfig() (*core.SuiteConfig, error) {
	cfg := core.DefaultSuiteConfig()
	if err := o.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode suite config: %w", err)
	}
	if err := cfg.ApplyGridBuilders(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogging builds the logger; console output goes to w.
func (o *Options) SetupLogging(w io.Writer) (*logging.Logger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.LogLevel(o.v.GetString("log.level"))
	cfg.Format = logging.LogFormat(o.v.GetString("log.format"))
	cfg.OutputDir = o.v.GetString("log.output_dir")
	logger, err := logging.NewLogger(cfg, w)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}
