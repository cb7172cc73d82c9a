package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/schema"
)

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema every catalog record is validated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(schema.Document())
			return err
		},
	}
}
