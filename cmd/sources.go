package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/motopipe/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the built-in and configured sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Source", "Brand", "Kind", "Enabled", "URL"})

		for _, def := range sources.Builtins() {
			ov := cfg.Sources[def.Name]
			enabled := !ov.Disabled && (def.Default || ov.Enabled)
			url := def.URL
			if ov.URL != "" {
				url = ov.URL
			}
			t.AppendRow(table.Row{def.Name, def.Brand, def.Kind, yesNo(enabled), url})
		}
		for _, c := range cfg.Custom {
			url := c.URL
			if url == "" {
				url = c.File
			}
			t.AppendRow(table.Row{c.Name, c.Brand, c.Kind + " (custom)", yesNo(true), url})
		}

		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
