package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/build"
)

func (a *app) extractCmd() *cobra.Command {
	var uomDir, output string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the unit-definition sources and resolve reference units",
		Long: `extract writes the library catalog only: every unit found in the
quantity sources with its system and reference unit, without
reconciliation against the prefixed catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrideString(&a.cfg.Source.UomDir, uomDir)
			overrideString(&a.cfg.Output.UomPath, output)
			if err := a.cfg.ValidateExtract(); err != nil {
				return err
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}

			run, err := p.ExtractOnly(runContext(cmd), build.OptionsFromConfig(a.cfg))
			if run != nil {
				report(cmd, run.Diagnostics)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&uomDir, "uom-dir", "", "Directory of unit-definition sources (UNITCAT_UOM_DIR)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Library catalog output path (UNITCAT_UOM_OUTPUT)")
	return cmd
}
