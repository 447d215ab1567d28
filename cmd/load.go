package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jorundl/costofliving-etl/config"
	"github.com/jorundl/costofliving-etl/pipeline"
)

func newLoadCmd() *cobra.Command {
	var truncate bool
	var key string
	var table string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Runs the S3-to-Snowflake load once and exits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}

			secrets, err := config.LoadSecrets()
			if err != nil {
				log.Error(fmt.Sprintf("Error loading secrets: %v", err))
				return err
			}

			if cmd.Flags().Changed("truncate") {
				cfg.Snowflake.TruncateFirst = truncate
			}
			if key != "" {
				cfg.S3.ObjectKey = key
			}
			if table != "" {
				cfg.Snowflake.Table = table
			}

			ctx := context.Background()

			p, err := pipeline.New(ctx, cfg, secrets, log)
			if err != nil {
				log.Error(fmt.Sprintf("Error creating pipeline: %v", err))
				return err
			}
			defer p.Close()

			rows, err := p.Run(ctx)
			if err != nil {
				log.Error(fmt.Sprintf("Error running pipeline: %v", err))
				return err
			}
			log.Info(fmt.Sprintf("Batch job completed without errors. Loaded %d rows into %s", rows, cfg.Snowflake.Table))
			return nil
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "truncate the target table before loading (rerun-safe, overrides config)")
	cmd.Flags().StringVar(&key, "key", "", "object key to fetch (overrides config)")
	cmd.Flags().StringVar(&table, "table", "", "target table name (overrides config)")

	return cmd
}
