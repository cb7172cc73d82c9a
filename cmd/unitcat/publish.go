package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/logging"
	"github.com/JonMunkholm/unitcat/internal/store"
)

func (a *app) publishCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "publish FILE",
		Short: "Validate a catalog and replace the database table with it",
		Long: `publish validates FILE like the validate command, then upserts every
record into PostgreSQL in one transaction and deletes rows that are not
part of this catalog. Requires DATABASE_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrideString(&a.cfg.Database.Table, table)
			if err := a.cfg.ValidatePublish(); err != nil {
				return err
			}

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

			ctx, cancel := context.WithTimeout(ctx, a.cfg.Database.Timeout)
			defer cancel()

			pool, err := store.OpenPool(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			pub, err := store.NewPublisher(store.PoolBeginner{Pool: pool}, a.cfg.Database.Table, logging.FromContext(ctx))
			if err != nil {
				return err
			}

			runID, _ := logging.RunID(ctx)
			res, err := pub.Publish(ctx, records, runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d records to %s (removed %d, build %s)\n",
				res.Upserted, pub.Table(), res.Deleted, res.BuildID)
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Target table, optionally schema qualified (UNITCAT_DB_TABLE)")
	return cmd
}
