package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/config"
	"github.com/talgya/catchgen/internal/engine"
	"github.com/talgya/catchgen/internal/persistence"
	"github.com/talgya/catchgen/internal/pomdp"
	"github.com/talgya/catchgen/internal/world"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var flags config.Config
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the catch problem file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = generate(cfg)
			return err
		},
	}

	def := config.Default()
	f := cmd.Flags()
	f.IntVar(&flags.Rows, "rows", def.Rows, "grid rows")
	f.IntVar(&flags.Cols, "cols", def.Cols, "grid columns")
	f.IntVar(&flags.Agents, "agents", def.Agents, "number of catchers")
	f.IntVar(&flags.Wumpi, "wumpi", def.Wumpi, "number of wumpi")
	f.Float64Var(&flags.Reliability, "reliability", def.Reliability, "probability a move goes where intended")
	f.Float64Var(&flags.Discount, "discount", def.Discount, "discount factor")
	f.StringSliceVar(&flags.Actions, "actions", def.Actions, "catcher actions (N,S,E,W,T)")
	f.StringSliceVar(&flags.ObservationLabels, "observation-labels", def.ObservationLabels, "per-catcher observation labels")
	f.StringVarP(&flags.Output, "out", "o", def.Output, "output file")
	f.StringVar(&flags.DBPath, "db", def.DBPath, "run catalog database (empty to skip)")
	f.IntVar(&flags.MaxJointPairs, "max-joint-pairs", def.MaxJointPairs, "cap on joint states x joint actions (0 = no cap)")
	return cmd
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	set := cmd.Flags().Changed
	if set("rows") {
		cfg.Rows = flags.Rows
	}
	if set("cols") {
		cfg.Cols = flags.Cols
	}
	if set("agents") {
		cfg.Agents = flags.Agents
	}
	if set("wumpi") {
		cfg.Wumpi = flags.Wumpi
	}
	if set("reliability") {
		cfg.Reliability = flags.Reliability
	}
	if set("discount") {
		cfg.Discount = flags.Discount
	}
	if set("actions") {
		cfg.Actions = flags.Actions
	}
	if set("observation-labels") {
		cfg.ObservationLabels = flags.ObservationLabels
	}
	if set("out") {
		cfg.Output = flags.Output
	}
	if set("db") {
		cfg.DBPath = flags.DBPath
	}
	if set("max-joint-pairs") {
		cfg.MaxJointPairs = flags.MaxJointPairs
	}
}

// buildEmitter assembles grid, roster, transition table and composer for cfg.
func buildEmitter(cfg config.Config) (*pomdp.Emitter, error) {
	g, err := world.NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	roster := agents.NewCatchRoster(g, cfg.Agents, cfg.Wumpi, cfg.Reliability, cfg.ParsedActions())

	table, err := engine.BuildTable(roster)
	if err != nil {
		return nil, fmt.Errorf("build transition table: %w", err)
	}
	composer, err := engine.NewComposer(roster, table)
	if err != nil {
		return nil, err
	}
	return pomdp.NewEmitter(pomdp.Header{
		Discount:          cfg.Discount,
		Cells:             g.Cells(),
		Observers:         cfg.Agents,
		ObservationLabels: cfg.ObservationLabels,
	}, roster, composer)
}

// generate writes the problem file for cfg and records the run.
func generate(cfg config.Config) (pomdp.Stats, error) {
	start := time.Now()
	slog.Info("generating catch problem",
		"grid", fmt.Sprintf("%dx%d", cfg.Rows, cfg.Cols),
		"agents", cfg.Agents,
		"wumpi", cfg.Wumpi,
		"reliability", cfg.Reliability,
		"actions", cfg.Actions,
	)

	// ── Model ─────────────────────────────────────────────────────────
	emitter, err := buildEmitter(cfg)
	if err != nil {
		return pomdp.Stats{}, err
	}
	states, actions, observations := emitter.Cardinalities()
	slog.Info("model ready",
		"states", humanize.Comma(int64(states)),
		"actions", humanize.Comma(int64(actions)),
		"observations", humanize.Comma(int64(observations)),
	)

	// ── Output ────────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pomdp.Stats{}, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return pomdp.Stats{}, fmt.Errorf("create output: %w", err)
	}
	stats, err := emitter.Write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(cfg.Output)
		return stats, fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	elapsed := time.Since(start)
	slog.Info("problem file written",
		"path", cfg.Output,
		"size", humanize.Bytes(uint64(stats.Bytes)),
		"transitions", humanize.Comma(int64(stats.Transitions)),
		"elapsed", elapsed.Round(time.Millisecond),
	)

	// ── Catalog ───────────────────────────────────────────────────────
	if cfg.DBPath == "" {
		return stats, nil
	}
	if err := recordRun(cfg, stats, elapsed); err != nil {
		return stats, err
	}
	return stats, nil
}

func recordRun(cfg config.Config, stats pomdp.Stats, elapsed time.Duration) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := filepath.Abs(cfg.Output)
	if err != nil {
		path = cfg.Output
	}
	run := &persistence.Run{
		Rows:         cfg.Rows,
		Cols:         cfg.Cols,
		Agents:       cfg.Agents,
		Wumpi:        cfg.Wumpi,
		Reliability:  cfg.Reliability,
		Discount:     cfg.Discount,
		Actions:      strings.Join(cfg.Actions, ","),
		States:       stats.States,
		JointActions: stats.Actions,
		Observations: stats.Observations,
		Transitions:  stats.Transitions,
		Bytes:        stats.Bytes,
		Path:         path,
		DurationMS:   elapsed.Milliseconds(),
	}
	if err := db.RecordRun(run); err != nil {
		return err
	}
	slog.Info("run recorded", "id", run.ID, "db", cfg.DBPath)
	return nil
}
