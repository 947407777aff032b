// Package main provides the chart-go command: it runs a chart declaration
// in a window, validates declarations and prints axis ticks.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the current version of chart-go.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chart-go",
		Short: "Render live charts declared in Lua",
		Long: `chart-go renders Cartesian and pie charts declared in Lua. Data comes
from XLSX workbooks or inline rows and is laid out again whenever a
workbook, the declaration or the window changes.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("chart-go version %s\n", Version))
	root.AddCommand(newRunCmd(), newValidateCmd(), newTicksCmd())
	return root
}

// exitError carries a status without printing anything more.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
