// cmd/sampler/main.go
//
// This is the entry point for the tree sampler CLI.
// When you run `sampler` from any directory, this is what executes.
//
// Flow:
// 1. Create the .sampler folder and load its config
// 2. Generate the garden catalog from the configured seed
// 3. Launch the TUI, or run a scripted session with `sampler run`

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/config"
	"github.com/kingrea/tree-sampler/internal/logbook"
	"github.com/kingrea/tree-sampler/internal/logging"
	"github.com/kingrea/tree-sampler/internal/prompt"
	"github.com/kingrea/tree-sampler/internal/report"
	"github.com/kingrea/tree-sampler/internal/tui"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

// flags shared by every command
type rootFlags struct {
	configPath string
	seed       uint64
	plots      int
	verbose    bool
	pinSeed    bool
	strict     bool
}

// runtime is everything a command needs once startup has finished.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	journal *logbook.Logbook
	seed    uint64
	catalog *catalog.Catalog
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "sampler",
		Short: "Tree sampling for garden plots",
		Long: `sampler walks a field operator through choosing an area and age bucket,
sampling gardens, recording tree height and yield, and exporting a CSV report.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return rt.setup(cmd, flags)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return rt.runInteractive()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: .sampler/config.yaml)")
	pf.Uint64Var(&flags.seed, "seed", 0, "catalog seed; 0 uses the config value or the clock")
	pf.IntVar(&flags.plots, "plots", 0, "number of gardens to generate (overrides config)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug-level diagnostics in sampler.log")
	pf.BoolVar(&flags.pinSeed, "pin-seed", false, "save the seed used this run to the config file")
	pf.BoolVar(&flags.strict, "strict", false, "require numeric height and yield (overrides config)")

	rootCmd.AddCommand(newRunCmd(rt))
	rootCmd.AddCommand(newCatalogCmd(rt))
	rootCmd.AddCommand(newSizesCmd(rt))
	return rootCmd
}

func (rt *runtime) setup(cmd *cobra.Command, flags *rootFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if err := config.InitSamplerDir(cwd); err != nil {
		return fmt.Errorf("initializing .sampler directory: %w", err)
	}
	cfg, err := config.NewConfig(cwd, flags.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("plots") {
		cfg.Project.Catalog.Plots = flags.plots
	}
	if cmd.Flags().Changed("strict") {
		cfg.Project.Measurements.Strict = flags.strict
	}

	logger, err := logging.New(cwd, flags.verbose)
	if err != nil {
		return err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return err
	}

	seed := flags.seed
	if seed == 0 {
		seed = cfg.Seed()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if flags.pinSeed {
		if err := cfg.SetSeed(seed); err != nil {
			return err
		}
		journal.Info("Pinned catalog seed %d", seed)
	}

	cat, err := catalog.Generate(catalog.NewRand(seed), cfg.GenerateOptions())
	if err != nil {
		return fmt.Errorf("generating catalog: %w", err)
	}
	logger.Info("catalog generated",
		zap.Uint64("seed", seed),
		zap.Int("plots", cat.Len()),
		zap.String("config", cfg.ProjectConfigPath()),
	)

	rt.cfg = cfg
	rt.logger = logger
	rt.journal = journal
	rt.seed = seed
	rt.catalog = cat
	return nil
}

// newWorkflow builds a workflow whose sampling draws continue the catalog
// seed, so a pinned seed reproduces auto-selections too.
func (rt *runtime) newWorkflow() (*workflow.Workflow, error) {
	return workflow.New(rt.catalog, catalog.NewRand(rt.seed+1),
		workflow.WithSizeTable(rt.cfg.SizeTable()),
		workflow.WithDomains(rt.cfg.Project.Catalog.Areas, rt.cfg.Project.Catalog.AgeBuckets),
		workflow.WithTreeDensity(rt.cfg.Project.TreeDensity),
		workflow.WithStrictMeasurements(rt.cfg.Project.Measurements.Strict),
		workflow.WithLogger(rt.logger),
		workflow.WithLogbook(rt.journal),
	)
}

func (rt *runtime) runInteractive() error {
	wf, err := rt.newWorkflow()
	if err != nil {
		return err
	}
	app, err := tui.NewApp(wf,
		tui.WithLogbook(rt.journal),
		tui.WithLogger(rt.logger),
		tui.WithReportDir(rt.cfg.ReportDir()),
	)
	if err != nil {
		return err
	}
	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return app.Err()
}

func newRunCmd(rt *runtime) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sampling session from a YAML script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			script, err := prompt.LoadScript(scriptPath)
			if err != nil {
				return err
			}
			wf, err := rt.newWorkflow()
			if err != nil {
				return err
			}
			st, err := workflow.NewDriver(wf, prompt.NewScripted(script)).Run(cmd.Context(), wf.Start())
			if err != nil {
				rt.logger.Error("scripted session failed", zap.String("session", st.SessionID), zap.Error(err))
				return err
			}
			rep, err := report.Build(st)
			if err != nil {
				return err
			}
			path, err := rep.Export(rt.cfg.ReportDir())
			if err != nil {
				return err
			}
			rt.journal.Info("Report exported to %s", path)
			rt.logger.Info("report exported", zap.String("session", st.SessionID), zap.String("path", path))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Data Saved Successfully!")
			fmt.Fprintln(out, rep.SummaryTable())
			fmt.Fprintf(out, "Report: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "YAML script answering each step")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newCatalogCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the generated garden catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.catalog == nil {
				return errors.New("catalog not generated")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seed: %d\n", rt.seed)
			fmt.Fprintln(out, report.PlotTable(rt.catalog.Plots(), rt.cfg.Project.TreeDensity))
			return nil
		},
	}
}

func newSizesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "Print the ideal sample size table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), report.SizeTableView(
				rt.cfg.SizeTable(),
				rt.cfg.Project.Catalog.Areas,
				rt.cfg.Project.Catalog.AgeBuckets,
			))
			return nil
		},
	}
}
