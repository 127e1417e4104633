package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LynnColeArt/gemmshapes"
	"github.com/LynnColeArt/gemmshapes/internal/config"
	"github.com/LynnColeArt/gemmshapes/internal/export"
	"github.com/LynnColeArt/gemmshapes/internal/hostinfo"
)

func newListCmd(opts *options) *cobra.Command {
	lopts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List model profiles and their four projection shapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, lopts)
		},
	}
	cmd.Flags().BoolVarP(&lopts.all, "all", "a", false, "Include disabled profiles")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [model]",
		Short: "Show one profile by name or alias",
		Long: `Show one profile by name or alias.

Example:
  gemmshapes show internlm2.5-7b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}
}

func newProblemsCmd(opts *options) *cobra.Command {
	popts := &problemsOptions{}
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Size GEMM problems (M=tokens, N=rows, K=cols) for each shape",
		Long: `Size GEMM problems for every active profile, or only those named
with --model, at each token count.

Example:
  gemmshapes problems --tokens 1,128,2048 --model llama2-7b --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProblems(cmd, opts, popts)
		},
	}
	cmd.Flags().Int64SliceVarP(&popts.tokens, "tokens", "t", []int64{1, 16, 128, 2048}, "Token counts (GEMM M dimension)")
	cmd.Flags().StringSliceVarP(&popts.models, "model", "m", nil, "Restrict to these profiles (name or alias)")
	cmd.Flags().StringVarP(&popts.format, "format", "f", "", "Output format: json, yaml or csv (default: table)")
	cmd.Flags().StringVarP(&popts.out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&popts.dtype, "dtype", "f16", "Element type used for the MiB column")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	eopts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile table as JSON, YAML or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, eopts)
		},
	}
	cmd.Flags().StringVarP(&eopts.format, "format", "f", "json", "Output format: json, yaml or csv")
	cmd.Flags().BoolVarP(&eopts.all, "all", "a", false, "Include disabled profiles")
	cmd.Flags().StringVarP(&eopts.out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&eopts.dir, "dir", "", "Write a timestamped export into this directory")
	cmd.MarkFlagsMutuallyExclusive("out", "dir")
	return cmd
}

func newValidateCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [overlay.yaml]",
		Short: "Check an overlay file without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func newEnvCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print module version and host CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd)
		},
	}
}

func runList(cmd *cobra.Command, opts *options, lopts *listOptions) error {
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	profiles := reg.List(!lopts.all)
	logger.Debug("listing profiles", zap.Int("count", len(profiles)), zap.Bool("all", lopts.all))

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tALIASES\tACTIVE\tGATE_UP\tDOWN\tQKV\tOUTPUT")
	for _, m := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%t", m.Name, dash(strings.Join(m.Aliases, ",")), m.Active)
		for _, p := range gemmshapes.Projections {
			fmt.Fprintf(tw, "\t%s", m.Shape(p))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, opts *options, name string) error {
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	m, err := reg.Get(name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", m.Label())
	if !m.Active {
		fmt.Fprintln(out, "  (disabled)")
	}
	for _, p := range gemmshapes.Projections {
		s := m.Shape(p)
		fmt.Fprintf(out, "  %-8s %6d x %-6d  %d params\n", p, s.Rows, s.Cols, s.Elements())
	}
	return nil
}

func runProblems(cmd *cobra.Command, opts *options, popts *problemsOptions) error {
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	dt, err := gemmshapes.ParseDType(popts.dtype)
	if err != nil {
		return err
	}

	profiles := reg.List(true)
	if len(popts.models) > 0 {
		profiles = make([]gemmshapes.ModelProfile, 0, len(popts.models))
		for _, name := range popts.models {
			m, err := reg.Get(name)
			if err != nil {
				return err
			}
			profiles = append(profiles, m)
		}
		// a name and its alias resolve to the same profile
		profiles = lo.UniqBy(profiles, func(m gemmshapes.ModelProfile) string { return m.Name })
	}

	problems, err := gemmshapes.Problems(profiles, popts.tokens...)
	if err != nil {
		return err
	}
	logger.Debug("sized problems",
		zap.Int("profiles", len(profiles)),
		zap.Int64s("tokens", popts.tokens),
		zap.Int("problems", len(problems)))

	if popts.format == "" {
		return writeProblemTable(cmd.OutOrStdout(), problems, dt)
	}
	format, err := export.ParseFormat(popts.format)
	if err != nil {
		return err
	}
	manifest := export.NewManifest("gemmshapes problems")
	return emit(cmd.OutOrStdout(), popts.out, func(w io.Writer) error {
		return export.WriteProblems(w, format, manifest, problems)
	})
}

func writeProblemTable(w io.Writer, problems []gemmshapes.Problem, dt gemmshapes.DType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "LABEL\tM\tN\tK\tGFLOP\tMiB(%s)\t\n", dt)
	for _, p := range problems {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\t%.1f\t\n",
			p.Label(), p.M, p.N, p.K, float64(p.FLOPs())/1e9, float64(p.Bytes(dt))/(1<<20))
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, opts *options, eopts *exportOptions) error {
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(eopts.format)
	if err != nil {
		return err
	}
	profiles := reg.List(!eopts.all)
	manifest := export.NewManifest("gemmshapes export")
	out := eopts.out
	if eopts.dir != "" {
		out = export.SessionPath(eopts.dir, "shapes", format, manifest.Generated)
	}
	logger.Debug("exporting profiles",
		zap.String("format", string(format)),
		zap.Int("count", len(profiles)),
		zap.String("host", manifest.Host.Tier()))
	if err := emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return export.WriteProfiles(w, format, manifest, profiles)
	}); err != nil {
		return err
	}
	if eopts.dir != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}

func runValidate(cmd *cobra.Command, path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	// Apply to a scratch copy of the built-in table so alias collisions
	// surface the same way they would under --config.
	scratch, err := gemmshapes.NewRegistry(gemmshapes.Profiles()...)
	if err != nil {
		return err
	}
	if err := config.Apply(scratch, f, logger); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d profiles OK\n", path, len(f.Profiles))
	return nil
}

func runEnv(cmd *cobra.Command) error {
	version, sum := gemmshapes.Version()
	info := hostinfo.Detect()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version: %s\n", dash(version))
	if sum != "" {
		fmt.Fprintf(out, "sum:     %s\n", sum)
	}
	fmt.Fprintf(out, "host:    %s\n", info)
	fmt.Fprintf(out, "cpus:    %d\n", info.NumCPU)
	fmt.Fprintf(out, "tier:    %s\n", info.Tier())
	return nil
}

// emit writes to path when set, otherwise to stdout.
func emit(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	if err := export.WriteFile(path, write); err != nil {
		return err
	}
	logger.Info("wrote export", zap.String("path", path))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
