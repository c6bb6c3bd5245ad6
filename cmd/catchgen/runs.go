package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/catchgen/internal/config"
	"github.com/talgya/catchgen/internal/persistence"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var (
		limit  int
		dbPath string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded generation runs, or show one by ID prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("no run catalog configured")
			}
			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 1 {
				r, err := db.GetRun(args[0])
				if err != nil {
					return err
				}
				return writeRuns(cmd.OutOrStdout(), []persistence.Run{r}, asJSON)
			}

			runs, err := db.RecentRuns(limit)
			if err != nil {
				return err
			}
			return writeRuns(cmd.OutOrStdout(), runs, asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().StringVar(&dbPath, "db", config.Default().DBPath, "run catalog database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as a JSON array")
	return cmd
}

func writeRuns(w io.Writer, runs []persistence.Run, asJSON bool) error {
	if !asJSON {
		return printRuns(w, runs)
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}

func printRuns(w io.Writer, runs []persistence.Run) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tGRID\tAGENTS\tWUMPI\tACTIONS\tSTATES\tTRANSITIONS\tSIZE\tPATH")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			humanize.Time(r.CreatedAt),
			r.Rows, r.Cols,
			r.Agents, r.Wumpi,
			r.Actions,
			humanize.Comma(int64(r.States)),
			humanize.Comma(int64(r.Transitions)),
			humanize.Bytes(uint64(r.Bytes)),
			r.Path,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
