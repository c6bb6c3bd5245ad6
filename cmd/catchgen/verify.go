package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/catchgen/internal/pomdp"
)

func newVerifyCmd() *cobra.Command {
	var tol float64
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Parse a problem file and check that its distributions sum to 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(args[0], tol)
		},
	}
	cmd.Flags().Float64Var(&tol, "tolerance", 1e-9, "allowed deviation of each row's mass from 1")
	return cmd
}

func verify(path string, tol float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := pomdp.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Validate(tol); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("problem file is valid",
		"path", path,
		"states", humanize.Comma(int64(len(m.States))),
		"actions", humanize.Comma(int64(len(m.Actions))),
		"observations", humanize.Comma(int64(len(m.Observations))),
		"transitions", humanize.Comma(int64(len(m.Transitions))),
		"discount", m.Discount,
	)
	return nil
}
