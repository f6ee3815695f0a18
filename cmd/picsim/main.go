package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/picsim/internal/analysis"
	"github.com/san-kum/picsim/internal/compute"
	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/experiment"
	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
	"github.com/san-kum/picsim/internal/storage"
	"github.com/san-kum/picsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	scenario   string
	preset     string
	steps      int
	backend    string
	tiles      int
	workers    int
	seed       int64

	column    string
	tileIndex int
	outFile   string

	alpha     float64
	stride    int
	subcycles int
	passes    int
	cells     int

	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "picsim",
		Short: "particle-in-cell current deposition lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a deposition experiment and record it",
		RunE:  runExperiment,
	}
	addExperimentFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step the first tile with a live terminal view",
		RunE:  runLive,
	}
	addExperimentFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time every deposition backend on the same setup",
		RunE:  benchBackends,
	}
	addExperimentFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}
	addConfigFlag(listCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a diagnostics column of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "current_energy", "diagnostics column ("+strings.Join(metrics.Columns(), ", ")+")")
	plotCmd.Flags().IntVar(&tileIndex, "tile", 0, "tile to plot")
	addConfigFlag(plotCmd)

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and diagnostics as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	addConfigFlag(exportJSONCmd)

	responseCmd := &cobra.Command{
		Use:   "response [filter]",
		Short: "measure the transfer function of a filter",
		Args:  cobra.ExactArgs(1),
		RunE:  filterResponse,
	}
	responseCmd.Flags().Float64Var(&alpha, "alpha", 0.5, "center weight of three-point filters")
	responseCmd.Flags().IntVar(&stride, "stride", 2, "stride of general3p_strided")
	responseCmd.Flags().IntVar(&subcycles, "subcycles", 1, "subcycles of opt_binomial2")
	responseCmd.Flags().IntVar(&passes, "passes", 1, "filter passes")
	responseCmd.Flags().IntVar(&cells, "cells", 64, "cells along x")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, exportJSONCmd, responseCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

func addExperimentFlags(cmd *cobra.Command) {
	addConfigFlag(cmd)
	cmd.Flags().StringVar(&scenario, "scenario", "turbulence", "preset group")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "steps to run")
	cmd.Flags().StringVar(&backend, "backend", "auto", "deposition backend ("+strings.Join(compute.Names(), ", ")+")")
	cmd.Flags().IntVar(&tiles, "tiles", 1, "tiles laid along x")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines, 0 for GOMAXPROCS")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
}

// loadConfig resolves preset, then config file, then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(scenario, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s (available: %v)", scenario, preset, config.ListPresets(scenario))
		}
	} else if cmd.Flags().Changed("scenario") {
		cfg.Scenario = scenario
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("backend") {
		cfg.Deposit.Backend = backend
	}
	if flags.Changed("tiles") {
		cfg.Tiles = tiles
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	cfg.Output.Dir = runsDir(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runsDir picks where runs live: an explicit --data wins over output.dir of
// cfg, and the --data default covers the rest.
func runsDir(cmd *cobra.Command, cfg *config.Config) string {
	if f := cmd.Flag("data"); f != nil && f.Changed {
		return dataDir
	}
	if cfg != nil && cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return dataDir
}

// openStore opens the run directory that run would write with the same
// --data and --config.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return storage.New(runsDir(cmd, cfg)), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	st := storage.New(cfg.Output.Dir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(cfg)
	if err != nil {
		return err
	}
	for i := 0; i < exp.NumTiles(); i++ {
		exp.Simulator(i).AddObserver(run.Recorder(i, exp.Tile(i)))
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%dD, %v cells, %d tiles)...\n", cfg.Scenario, cfg.Dim, cfg.Lengths(), cfg.Tiles)
	start := time.Now()
	results, err := exp.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		if _, abortErr := run.Abort(results, elapsed, err); abortErr != nil {
			logger.Error("closing run", "run", run.ID, "err", abortErr)
		}
		return err
	}

	meta, err := run.Finish(results, elapsed)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	fmt.Printf("steps: %d\n", cfg.Steps)
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(meta.Metrics) {
		fmt.Printf("  %s: %.6e\n", name, meta.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the terminal belongs to the view
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	maxSteps := 0
	if cmd.Flags().Changed("steps") {
		maxSteps = cfg.Steps
	}
	return viz.Run(viz.NewModel(exp.Simulator(0), exp.Tile(0), cfg.Scenario, maxSteps))
}

func benchBackends(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tPARTICLES\tSTEPS\tELAPSED\tPER STEP")

	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	for _, name := range compute.Names() {
		c := *cfg
		c.Deposit.Backend = name
		c.Output.SnapshotEvery = 0

		exp := experiment.New(&c, quiet)
		if err := exp.Setup(); err != nil {
			return err
		}
		n := 0
		for i := 0; i < exp.NumTiles(); i++ {
			n += exp.Tile(i).NumParticles()
		}

		start := time.Now()
		if _, err := exp.Run(context.Background()); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%v\n", name, n, c.Steps, elapsed.Round(time.Microsecond), (elapsed / time.Duration(c.Steps)).Round(time.Microsecond))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDIM\tCELLS\tSTEPS\tTILES\tBACKEND\tELAPSED\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dD\t%v\t%d\t%d\t%s\t%.3fs\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dim,
			run.Lengths,
			run.Steps,
			run.Tiles,
			run.Backend,
			run.Elapsed,
			run.Status,
		)
	}
	return w.Flush()
}

func resolveRunID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}

	data := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Tile != tileIndex {
			continue
		}
		v, ok := r.Column(column)
		if !ok {
			return fmt.Errorf("unknown column: %s (available: %v)", column, metrics.Columns())
		}
		data = append(data, v)
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(data))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s, tile %d", column, tileIndex)),
	)
	fmt.Println(graph)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	if outFile == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}
	if err := st.ExportJSONFile(outFile, args[0]); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func filterResponse(cmd *cobra.Command, args []string) error {
	fc := config.FilterConfig{Name: args[0], Passes: passes, Alpha: alpha, Stride: stride, Subcycles: subcycles}
	chain, err := experiment.NewRegistry().GetChain([]config.FilterConfig{fc}, pic.Dim1)
	if err != nil {
		return err
	}

	resp, err := analysis.Response(chain, cells)
	if err != nil {
		return err
	}

	fmt.Printf("filter: %s\n", chain.Name())
	if i := resp.CutoffIndex(0.5); i >= 0 {
		fmt.Printf("half-gain wavenumber: %.3f rad/cell (wavelength %.1f cells)\n", resp.K[i], 2*math.Pi/resp.K[i])
	}
	fmt.Println()

	graph := asciigraph.Plot(resp.Gain,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("gain vs k, 0 to pi"),
	)
	fmt.Println(graph)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.Scenarios()
	if len(args) > 0 {
		groups = []string{args[0]}
	}

	for _, g := range groups {
		names := config.ListPresets(g)
		if names == nil {
			return fmt.Errorf("unknown scenario: %s (available: %v)", g, config.Scenarios())
		}
		fmt.Printf("%s:\n", g)
		for _, name := range names {
			p := config.GetPreset(g, name)
			filters := make([]string, 0, len(p.Filters))
			for _, f := range p.Filters {
				filters = append(filters, f.Name)
			}
			fmt.Printf("  %-12s %dD %v cells, cfl %.2f, %d steps, filters %v\n", name, p.Dim, p.Lengths(), p.CFL, p.Steps, filters)
		}
	}
	return nil
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
