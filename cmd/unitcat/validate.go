package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/logging"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a catalog against the record schema and catalog invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			ctx := runContext(cmd)
			c := diag.NewCollector(logging.FromContext(ctx))
			records, err := p.Validate(ctx, args[0], c)
			report(cmd, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records OK\n", args[0], len(records))
			return nil
		},
	}
}
