package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ja7ad/fodlam/pkg/costmodel"
	"github.com/ja7ad/fodlam/pkg/dataset"
	"github.com/ja7ad/fodlam/pkg/report"
	"github.com/ja7ad/fodlam/pkg/server"
	"github.com/ja7ad/fodlam/pkg/units"
)

type opts struct {
	// inputs
	dataDir     string
	lowFile     string
	highFile    string
	highNetwork string
	latencyKind string
	netsDir     string

	// calibration
	lowNM          float64
	highNM         float64
	lowTimeUnit    string
	highTimeUnit   string
	lowPowerUnit   string
	highPowerUnit  string
	lowDesignPower float64

	verbose bool
}

type estimateOpts struct {
	layers      bool
	pretty      bool
	csvPath     string
	jsonPath    string
	htmlPath    string
	metricsPath string
}

var (
	runID  = xid.New().String()
	logger = slog.Default()
)

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "fodlam",
		Short: "First-order latency and energy model for DNN accelerators",
		Long: `fodlam estimates the latency and energy of running convolutional network
layers on a dedicated accelerator. It merges two published measurement
datasets (a latency-only table scaled to the other's process node, and a
per-layer latency/power table) and extrapolates unmeasured layers from the
average cost per multiply-accumulate of their category (conv or fc).

Examples:
  fodlam estimate configs/vgg16-all.yaml
  fodlam estimate --layers --json out.json configs/alexnet.yaml
  fodlam diagnose
  fodlam serve --addr :8080`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if o.verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
				With("run", runID)
			slog.SetDefault(logger)
			start := time.Now()
			atexit.Register(func() { logger.Debug("done", "took", time.Since(start)) })
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.dataDir, "data", "d", "data", "directory holding the published tables")
	pf.StringVar(&o.lowFile, "low", "", "latency-only table (default <data>/"+dataset.DefaultLowFile+")")
	pf.StringVar(&o.highFile, "high", "", "per-layer latency/power table (default <data>/"+dataset.DefaultHighFile+")")
	pf.StringVar(&o.highNetwork, "high-net", dataset.DefaultHighNetwork, "network measured by the per-layer table")
	pf.StringVar(&o.latencyKind, "latency", string(dataset.TotalLatency), "per-layer latency column: total or processing")
	pf.StringVar(&o.netsDir, "nets", dataset.DefaultNetsDir, "directory of per-network MAC statistics (JSON)")

	pf.Float64Var(&o.lowNM, "low-nm", 0, "process node of the latency-only design in nm (0 = built-in)")
	pf.Float64Var(&o.highNM, "high-nm", 0, "process node of the per-layer design in nm (0 = built-in)")
	pf.StringVar(&o.lowTimeUnit, "low-time-unit", "", "time unit of the latency-only table (us, ms, s)")
	pf.StringVar(&o.highTimeUnit, "high-time-unit", "", "time unit of the per-layer table (us, ms, s)")
	pf.StringVar(&o.lowPowerUnit, "low-power-unit", "", "power unit of the latency-only design (mW, W)")
	pf.StringVar(&o.highPowerUnit, "high-power-unit", "", "power unit of the per-layer table (mW, W)")
	pf.Float64Var(&o.lowDesignPower, "low-power", 0, "design-wide power of the latency-only design (0 = built-in)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		estimateCmd(&o),
		diagnoseCmd(&o),
		tablesCmd(&o),
		serveCmd(&o),
	)

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func estimateCmd(o *opts) *cobra.Command {
	var e estimateOpts
	cmd := &cobra.Command{
		Use:   "estimate CONFIG...",
		Short: "Estimate conv, fc and total cost of one or more layer configurations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd.OutOrStdout(), *o, e, args)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&e.layers, "layers", false, "also print the per-layer breakdown")
	f.BoolVar(&e.pretty, "pretty", true, "format output as a table instead of CSV")
	f.StringVar(&e.csvPath, "csv", "", "write totals to CSV file")
	f.StringVar(&e.jsonPath, "json", "", "write the full report to JSON file")
	f.StringVar(&e.htmlPath, "html", "", "write the full report to HTML file")
	f.StringVar(&e.metricsPath, "metrics", "", "write totals as a Prometheus textfile")
	return cmd
}

func diagnoseCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Report the cost per MAC of every measured layer and the category averages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildModel(*o)
			if err != nil {
				return err
			}
			return report.WriteDiagnostics(cmd.OutOrStdout(), m.Diagnose())
		},
	}
}

func tablesCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the normalized source tables and the merged latency, power and energy tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildModel(*o)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			low, high := m.Sources()
			if err := report.WriteSourceTables(out, low, high); err != nil {
				return err
			}
			fmt.Fprintln(out, "\n# merged")
			return report.WriteCostTables(out, m.Tables())
		},
	}
}

func serveCmd(o *opts) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve estimates over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildModel(*o)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(m, logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func runEstimate(stdout io.Writer, o opts, e estimateOpts, paths []string) error {
	m, err := buildModel(o)
	if err != nil {
		return err
	}
	keys := m.Tables().Keys("")

	rep := report.Report{RunID: runID, Generated: time.Now()}
	for _, p := range paths {
		cfg, err := dataset.LoadRunConfig(p)
		if err != nil {
			return err
		}
		specs, err := cfg.Specs(keys)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		est, err := m.Estimate(specs)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		logger.Debug("estimated", "config", cfg.Name, "layers", len(specs))
		rep.Results = append(rep.Results, report.NewResult(cfg.Name, est))
	}

	if e.pretty {
		if err := report.WriteTable(stdout, rep.Results); err != nil {
			return err
		}
	} else if err := report.WriteCSV(stdout, rep.Results); err != nil {
		return err
	}
	if e.layers {
		for _, r := range rep.Results {
			fmt.Fprintf(stdout, "\n# %s\n", r.Config)
			if err := report.WriteLayers(stdout, r); err != nil {
				return err
			}
		}
	}

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{e.csvPath, func(w io.Writer) error { return report.WriteCSV(w, rep.Results) }},
		{e.jsonPath, func(w io.Writer) error { return report.WriteJSON(w, rep) }},
		{e.htmlPath, func(w io.Writer) error { return report.WriteHTML(w, rep) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.write); err != nil {
			return err
		}
	}
	if e.metricsPath != "" {
		lat, en := m.Ratios()
		if err := report.WriteMetrics(e.metricsPath, rep.Results, lat, en); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

func buildModel(o opts) (*costmodel.Model, error) {
	cfg, err := calibration(o)
	if err != nil {
		return nil, err
	}

	kind, err := dataset.ParseLatencyKind(o.latencyKind)
	if err != nil {
		return nil, err
	}
	paths := dataset.DefaultPaths(o.dataDir)
	if o.lowFile != "" {
		paths.LowFile = o.lowFile
	}
	if o.highFile != "" {
		paths.HighFile = o.highFile
	}
	paths.HighNetwork = o.highNetwork
	paths.LatencyKind = kind
	paths.NetsDir = o.netsDir

	in, nets, err := dataset.LoadInputs(paths)
	if err != nil {
		return nil, err
	}
	if nets == nil {
		logger.Warn("no network statistics, scaled layers unavailable", "dir", paths.NetsDir)
	}

	m, err := costmodel.Build(cfg, in)
	if err != nil {
		return nil, err
	}
	for _, k := range m.Overlaps() {
		logger.Warn("layer in both sources, keeping per-layer measurement", "layer", k.String())
	}
	lat, en := m.Ratios()
	logger.Debug("model ready",
		"layers", len(m.Tables().Latency), "networks", m.Networks(),
		"latency_per_mac", lat, "energy_per_mac", en)
	return m, nil
}

func calibration(o opts) (*costmodel.Config, error) {
	override := costmodel.Config{
		Low:  costmodel.Source{ProcessNM: o.lowNM, DesignPower: o.lowDesignPower},
		High: costmodel.Source{ProcessNM: o.highNM, DesignPower: -1},
	}
	for _, u := range []struct {
		flag string
		dst  *units.Unit
	}{
		{o.lowTimeUnit, &override.Low.TimeUnit},
		{o.highTimeUnit, &override.High.TimeUnit},
		{o.lowPowerUnit, &override.Low.PowerUnit},
		{o.highPowerUnit, &override.High.PowerUnit},
	} {
		if u.flag == "" {
			continue
		}
		v, err := units.ParseUnit(u.flag)
		if err != nil {
			return nil, err
		}
		*u.dst = v
	}
	return costmodel.NewConfig(&override), nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
