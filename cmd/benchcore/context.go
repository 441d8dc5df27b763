package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"benchcore/internal/report"
)

func newContextCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the environment banner",
		RunE: func(cmd *cobra.Command, args []string) error {
			rctx := newContextFunc(os.Args[0], false)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rctx.CPU())
			}
			return report.PrintBasicContext(cmd.OutOrStdout(), rctx)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the CPU snapshot as JSON")
	return cmd
}
