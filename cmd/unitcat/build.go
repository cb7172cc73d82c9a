package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/build"
)

func (a *app) buildCmd() *cobra.Command {
	var (
		uomDir, prefixed, output, uomOutput string
		check, noSchema                     bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline and write the catalog",
		Long: `build extracts and resolves the unit-definition sources, reconciles them
with the prefixed catalog, verifies the result and writes it atomically.
Nothing is written when a fatal diagnostic was recorded.

With --check nothing is written at all; the command fails when the catalog
on disk differs from a fresh build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrideString(&a.cfg.Source.UomDir, uomDir)
			overrideString(&a.cfg.Source.PrefixedFile, prefixed)
			overrideString(&a.cfg.Output.Path, output)
			overrideString(&a.cfg.Output.UomPath, uomOutput)
			if noSchema {
				a.cfg.Output.ValidateSchema = false
			}
			if err := a.cfg.ValidateBuild(); err != nil {
				return err
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			opts := build.OptionsFromConfig(a.cfg)
			opts.Check = check

			run, err := p.Build(runContext(cmd), opts)
			if run != nil {
				report(cmd, run.Diagnostics)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&uomDir, "uom-dir", "", "Directory of unit-definition sources (UNITCAT_UOM_DIR)")
	cmd.Flags().StringVar(&prefixed, "prefixed", "", "Prefix-expanded catalog, JSON lines (UNITCAT_PREFIXED_FILE)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Catalog output path (UNITCAT_OUTPUT)")
	cmd.Flags().StringVar(&uomOutput, "uom-output", "", "Also write the resolved library catalog here (UNITCAT_UOM_OUTPUT)")
	cmd.Flags().BoolVar(&check, "check", false, "Write nothing; fail when the output is out of date")
	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "Skip JSON Schema validation")
	return cmd
}

func overrideString(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}
