package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-chart/internal/axis"
)

// tickRow is one printed tick.
type tickRow struct {
	Value float64
	Minor bool
}

func newTicksCmd() *cobra.Command {
	var (
		mode     string
		maxTicks int
		base     float64
	)
	cmd := &cobra.Command{
		Use:   "ticks <min> <max>",
		Short: "Print the ticks an axis would draw for an extent",
		Long: `Ticks prints the tick values for an axis extent. The linear mode uses
the decimal grid value axes draw by default; nice uses rounded major
and minor steps; log expects the extent in log space.`,
		Example: `  chart-go ticks 0 250
  chart-go ticks --mode nice --max-ticks 6 -- -3 17
  chart-go ticks --mode log --base 10 0 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid min %q", args[0])
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid max %q", args[1])
			}
			rows, err := tickRows(mode, lo, hi, maxTicks, base)
			if err != nil {
				return err
			}
			printTicks(cmd.OutOrStdout(), mode, base, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "linear", "tick mode: linear, nice or log")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 10, "upper bound on major ticks (nice and log)")
	cmd.Flags().Float64Var(&base, "base", 10, "logarithm base (log)")
	return cmd
}

func tickRows(mode string, lo, hi float64, maxTicks int, base float64) ([]tickRow, error) {
	var rows []tickRow
	switch mode {
	case "linear":
		tc, err := axis.NewTickCalculator(lo, hi)
		if err != nil {
			return nil, err
		}
		values := tc.Collect()
		slices.Sort(values)
		for _, v := range values {
			rows = append(rows, tickRow{Value: v})
		}
	case "nice":
		major, minor, err := axis.NiceTicks(lo, hi, maxTicks)
		if err != nil {
			return nil, err
		}
		for _, v := range major {
			rows = append(rows, tickRow{Value: v})
		}
		for _, v := range minor {
			if !slices.Contains(major, v) {
				rows = append(rows, tickRow{Value: v, Minor: true})
			}
		}
		slices.SortStableFunc(rows, func(a, b tickRow) int {
			switch {
			case a.Value < b.Value:
				return -1
			case a.Value > b.Value:
				return 1
			}
			return 0
		})
	case "log":
		if base <= 1 {
			return nil, fmt.Errorf("invalid --base %v: must be greater than 1", base)
		}
		values, err := axis.LogTicks(lo, hi, base, maxTicks)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			rows = append(rows, tickRow{Value: v})
		}
	default:
		return nil, fmt.Errorf("unknown --mode %q (want linear, nice or log)", mode)
	}
	return rows, nil
}

func printTicks(w io.Writer, mode string, base float64, rows []tickRow) {
	for _, r := range rows {
		v := strconv.FormatFloat(r.Value, 'g', -1, 64)
		switch {
		case r.Minor:
			fmt.Fprintln(w, dimStyle.Render(tickStyle.Render(v)))
		case mode == "log":
			fmt.Fprintf(w, "%s  %s\n", tickStyle.Render(v),
				dimStyle.Render(strconv.FormatFloat(math.Pow(base, r.Value), 'g', -1, 64)))
		default:
			fmt.Fprintln(w, tickStyle.Render(v))
		}
	}
}
