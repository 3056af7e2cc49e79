package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/picmesh/internal/config"
	"github.com/san-kum/picmesh/internal/diag"
	"github.com/san-kum/picmesh/internal/export"
	"github.com/san-kum/picmesh/internal/snapshot"
	"github.com/san-kum/picmesh/internal/tui"
)

var (
	configFile  string
	presetName  string
	steps       int
	dt          float64
	workers     int
	seed        int64
	live        bool
	historyPath string
	snapshotDir string
	svgPath     string
	plotSVG     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "picmesh",
		Short: "electromagnetic particle-in-cell lab",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&presetName, "preset", "", "named preset to start from")
	runCmd.Flags().IntVar(&steps, "steps", 0, "base-level step count")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 takes the cfl fraction)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "patch worker count (0 uses all cpus)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "particle seeding rng seed")
	runCmd.Flags().BoolVar(&live, "live", false, "live step monitor")
	runCmd.Flags().StringVar(&historyPath, "history", "", "per-step history csv path")
	runCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "final state snapshot directory")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write a final Ez midplane slice to this SVG file")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "check a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [history.csv]",
		Short: "plot the field energy of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotHistory,
	}
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write the curve to this SVG file")

	rootCmd.AddCommand(runCmd, initCmd, validateCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "" && presetName != "":
		return fmt.Errorf("--config and --preset are mutually exclusive")
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case presetName != "":
		if cfg = config.GetPreset(presetName); cfg == nil {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			return fmt.Errorf("unknown preset %q (have %v)", presetName, names)
		}
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("history") {
		cfg.Output.HistoryPath = historyPath
	}
	if cmd.Flags().Changed("snapshot-dir") {
		cfg.Output.SnapshotDir = snapshotDir
	}

	if cfg.Geometry == "cylindrical" {
		run, err := config.BuildCyl(cfg)
		if err != nil {
			return err
		}
		if err := run.Run(context.Background()); err != nil {
			return err
		}
		fmt.Printf("steps\t%d\nfinal time\t%g s\n", run.StepCount(), run.Time())
		return nil
	}

	d, err := config.Build(cfg)
	if err != nil {
		return err
	}

	d.AddMetric(diag.NewFieldEnergy())
	d.AddMetric(diag.NewEnergyDrift())
	d.AddMetric(diag.NewPeakField())
	if cfg.Cleaning || cfg.EMode == "hybrid" {
		d.AddMetric(diag.NewChargeError())
	}

	var recorder *diag.Recorder
	if cfg.Output.HistoryPath != "" {
		recorder, err = diag.NewRecorder(cfg.Output.HistoryPath)
		if err != nil {
			return err
		}
		defer recorder.Close()
		d.AddObserver(recorder)
	}

	ctx := context.Background()
	if live {
		monitor := tui.NewMonitor()
		d.AddObserver(monitor)
		go func() {
			_, err := d.Run(ctx)
			monitor.Finish(err)
		}()
		if err := tui.Run(monitor, cfg.Steps); err != nil {
			return err
		}
	} else {
		res, err := d.Run(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "steps\t%d\n", res.Steps)
		fmt.Fprintf(w, "final time\t%g s\n", res.FinalTime)
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%g\n", name, res.Metrics[name])
		}
		w.Flush()
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return err
		}
	}
	if cfg.Output.SnapshotDir != "" {
		store := snapshot.New(cfg.Output.SnapshotDir)
		if err := store.Init(); err != nil {
			return err
		}
		dir, err := store.Save(d, "final")
		if err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", dir)
	}
	if svgPath != "" {
		m := d.Base().Mesh
		svg := export.SliceSVG(m.Ez, m.Geom, export.Z, m.Geom.N[2]/2, 8)
		if err := os.WriteFile(svgPath, []byte(svg), 0o644); err != nil {
			return err
		}
		fmt.Printf("field slice written to %s\n", svgPath)
	}
	return nil
}

func plotHistory(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	var rows []diag.StepRecord
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("history %s is empty", args[0])
	}
	energy := make([]float64, len(rows))
	for i, r := range rows {
		energy[i] = r.FieldEnergy
	}
	fmt.Println(asciigraph.Plot(energy, asciigraph.Height(12), asciigraph.Width(72), asciigraph.Caption("field energy")))
	if plotSVG != "" {
		svg := export.HistorySVG(energy, 720, 240, "#00ff00")
		if err := os.WriteFile(plotSVG, []byte(svg), 0o644); err != nil {
			return err
		}
	}
	return nil
}
