package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-chart/internal/config"
)

func newValidateCmd() *cobra.Command {
	var strict, noFiles bool
	cmd := &cobra.Command{
		Use:   "validate <declaration.lua>",
		Short: "Check a chart declaration without rendering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(cmd.OutOrStdout(), args[0], strict, !noFiles)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&noFiles, "no-file-checks", false, "do not check that workbook files exist")
	return cmd
}

func validate(w io.Writer, path string, strict, checkFiles bool) error {
	p, err := config.NewParser()
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Fprintln(w, headingStyle.Render(path))
	cfg, err := p.ParseFile(path)
	if err != nil {
		fmt.Fprintf(w, "  %s %v\n", errorStyle.Render("error"), err)
		return exitError{code: 1}
	}

	result := config.NewValidator().WithStrictMode(strict).WithFileChecks(checkFiles).Validate(cfg)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s %s %s\n", errorStyle.Render("error"), fieldStyle.Render(e.Field), e.Message)
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "  %s %s %s\n", warnStyle.Render("warning"), fieldStyle.Render(e.Field), e.Message)
	}
	if !result.IsValid() {
		fmt.Fprintf(w, "%s\n", errorStyle.Render(fmt.Sprintf("%d error(s)", len(result.Errors))))
		return exitError{code: 1}
	}

	fmt.Fprintf(w, "%s %s\n", okStyle.Render("ok"), dimStyle.Render(fmt.Sprintf(
		"%d sources, %d axes, %d series, %d decorations",
		len(cfg.Sources), len(cfg.Axes), len(cfg.Series), len(cfg.Decorations))))
	return nil
}
