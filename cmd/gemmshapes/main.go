// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gemmshapes lists, validates and exports the transformer
// projection shapes used to drive GEMM tests and benchmarks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LynnColeArt/gemmshapes"
	"github.com/LynnColeArt/gemmshapes/internal/config"
)

// options holds the persistent flag values of one command tree.
// Subcommand flags live in their own structs so that defaults
// registered by one command never leak into another.
type options struct {
	verbose    bool
	configPath string
}

type listOptions struct {
	all bool
}

type problemsOptions struct {
	tokens []int64
	models []string
	format string
	out    string
	dtype  string
}

type exportOptions struct {
	format string
	all    bool
	out    string
	dir    string
}

// logger is built in PersistentPreRunE from --verbose.
var logger = zap.NewNop()

// newRootCmd builds the command tree. Each call gets its own flag state.
func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "gemmshapes",
		Short: "Transformer GEMM shape table",
		Long: `gemmshapes prints the weight-matrix shapes of the linear projections
of known language models, four per model:

  gate_up  fused gate and up projection (rows = 2 x intermediate size)
  down     feed-forward down projection
  qkv      fused query/key/value projection
  output   attention output projection

Use --config to merge a YAML overlay of extra or retuned profiles.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.OutputPaths = []string{"stderr"}
			if opts.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML overlay of additional profiles")

	rootCmd.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newProblemsCmd(opts),
		newExportCmd(opts),
		newValidateCmd(opts),
		newEnvCmd(opts),
	)
	return rootCmd
}

// loadRegistry returns the built-in registry, or a private copy with
// the --config overlay applied.
func (o *options) loadRegistry() (*gemmshapes.Registry, error) {
	if o.configPath == "" {
		return gemmshapes.Default(), nil
	}
	reg, err := gemmshapes.NewRegistry(gemmshapes.Profiles()...)
	if err != nil {
		return nil, err
	}
	f, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.Apply(reg, f, logger); err != nil {
		return nil, fmt.Errorf("applying %s: %w", o.configPath, err)
	}
	logger.Debug("overlay applied", zap.String("path", o.configPath), zap.Int("profiles", reg.Len()))
	return reg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
