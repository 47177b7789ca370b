package cmd

import (
	"context"
	"log"

	"lead-sync/core/config"
	"lead-sync/core/database"
	"lead-sync/core/logger"
	"lead-sync/core/scheduler"
	"lead-sync/feature/lead"
	"lead-sync/feature/lead/models"
	"lead-sync/feature/lead/synclog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncAll bool

// syncCmd dispatches a one-shot synchronization run and drains it.
var syncCmd = &cobra.Command{
	Use:   "sync [leadID...]",
	Short: "Synchronize leads to the external system",
	Long: `Dispatches a synchronization run for the given lead IDs (or, with
--all, every lead without an external reference) and waits for the
run to drain before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(&models.Lead{}, &models.SyncErrorLog{}); err != nil {
			return err
		}

		pool := scheduler.NewPool(cfg.Scheduler, logg)
		pool.Start(context.Background())

		recorder := synclog.NewRecorder(db, synclog.OpenPolicy{}, logg)
		sender := lead.NewClient(cfg.Sync, lead.NewBearerToken(cfg.Sync.ApiToken))
		svc := lead.NewService(db, pool, sender, recorder, cfg.Sync, logg)

		ctx := cmd.Context()
		var count int
		if syncAll {
			_, n, err := svc.SyncUnsynced(ctx)
			if err != nil {
				return err
			}
			count = n
		} else {
			if len(args) == 0 {
				return cmd.Help()
			}
			if _, err := svc.SyncByIDs(ctx, args); err != nil {
				return err
			}
			count = len(args)
		}

		logg.Info("Sync run dispatched, draining", zap.Int("leads", count))
		pool.Drain()
		pool.Stop()
		logg.Info("Sync run drained")
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every lead without an external reference")
	RootCmd.AddCommand(syncCmd)
}
