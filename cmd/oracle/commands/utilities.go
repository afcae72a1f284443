/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands: the dataset size suggestion table, the feature family
listing, and the self-check run before pointing the oracle at a new engine build.
*/

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/kleascm/akaylee-oracle/pkg/enumeration"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/spf13/cobra"
)

// DefaultDatasetsMaxCount bounds the suggestion table of the datasets command.
const DefaultDatasetsMaxCount = 1000000

func newDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Print cross-cat latent space sizes for choosing dataset shapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxCount, _ := cmd.Flags().GetUint64("max-count")
			return enumeration.WriteLatentSizes(cmd.OutOrStdout(), maxCount)
		},
	}
	cmd.Flags().Uint64("max-count", DefaultDatasetsMaxCount, "Largest latent space size to list")
	return cmd
}

func newListFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-features",
		Short: "List the feature families under test and their hyperparameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ListFeatures(cmd.OutOrStdout())
		},
	}
}

// ListFeatures writes one line per registered feature family.
func ListFeatures(w io.Writer) error {
	for _, t := range features.Types() {
		family, err := features.Lookup(t)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-5s %-8s %-30s %s\n",
			family.Type, family.Kind, strings.Join(family.HyperParams, ","), family.Description); err != nil {
			return err
		}
	}
	return nil
}

func newCheckCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration, engine and scratch root",
		Long: `Validate the suite configuration, confirm the engine binary exists and is
executable, and confirm the scratch root is writable. With --smoke the cats suite is
also run at a small latent space ceiling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.SuiteConfig()
			if err != nil {
				return err
			}
			if err := PerformSelfCheck(cmd.OutOrStdout(), cfg); err != nil {
				return err
			}
			if smoke, _ := cmd.Flags().GetBool("smoke"); smoke {
				return opts.runSuite(cmd, core.ModeCats, core.ModeCats.SmokeMaxSize(), false)
			}
			return nil
		},
	}
	cmd.Flags().Bool("smoke", false, "Also run a small cats suite")
	return cmd
}

// PerformSelfCheck runs every check, reporting each on w, and fails when any fails.
func PerformSelfCheck(w io.Writer, cfg *core.SuiteConfig) error {
	checks := []struct {
		name  string
		check func(*core.SuiteConfig) error
	}{
		{"Configuration", func(c *core.SuiteConfig) error { return c.Validate() }},
		{"Engine", checkEngine},
		{"Scratch root", checkScratchRoot},
	}

	var failed []error
	for _, c := range checks {
		if err := c.check(cfg); err != nil {
			fmt.Fprintf(w, "%-14s FAILED: %v\n", c.name, err)
			failed = append(failed, fmt.Errorf("%s: %w", strings.ToLower(c.name), err))
			continue
		}
		fmt.Fprintf(w, "%-14s ok\n", c.name)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d/%d checks failed: %w", len(failed), len(checks), errors.Join(failed...))
	}
	return nil
}

func checkEngine(cfg *core.SuiteConfig) error {
	if cfg.Engine.Path == core.BuiltinEngine {
		return nil
	}
	path, err := exec.LookPath(cfg.Engine.Path)
	if err != nil {
		return fmt.Errorf("engine not found: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("engine %s is not executable", path)
	}
	return nil
}

func checkScratchRoot(cfg *core.SuiteConfig) error {
	root := cfg.ScratchRoot
	if root == "" {
		root = os.TempDir()
	}
	dir, err := os.MkdirTemp(root, "oracle-check-")
	if err != nil {
		return fmt.Errorf("scratch root %s is not writable: %w", root, err)
	}
	return os.RemoveAll(dir)
}
