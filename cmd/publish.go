package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/db"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Mirror the current catalog into Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("publish"); err != nil {
			return err
		}

		snap, err := loadSnapshot(ctx)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Publish.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		mirror := db.NewMirror(pool, cfg.Publish.Table)
		if err := mirror.Migrate(ctx); err != nil {
			return eris.Wrap(err, "publish")
		}
		n, err := mirror.Publish(ctx, snap.Rows)
		if err != nil {
			return eris.Wrap(err, "publish")
		}

		zap.L().Info("publish: catalog mirrored",
			zap.String("catalog", snap.Path),
			zap.String("table", cfg.Publish.Table),
			zap.Int64("rows", n),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
