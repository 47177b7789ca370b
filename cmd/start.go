package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lead-sync/core/config"
	"lead-sync/core/database"
	"lead-sync/core/logger"
	"lead-sync/core/middleware/auth"
	"lead-sync/core/middleware/rayid"
	"lead-sync/core/scheduler"
	"lead-sync/core/storage"
	"lead-sync/feature/lead"
	"lead-sync/feature/lead/models"
	"lead-sync/feature/lead/synclog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "lead-sync/docs/swagger"
)

// @title Lead Sync API
// @version 1.0
// @description API for lead management and CRM synchronization.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lead sync server",
	Long:  `Starts the HTTP server, the background task pool, and the synchronization pipeline.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Lead{}, &models.SyncErrorLog{}); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Fault-Tolerant Recorder (with optional dead-letter archive)
		recorder := synclog.NewRecorder(db, synclog.OpenPolicy{}, logg)
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Warn("Dead-letter storage unavailable", zap.Error(err))
			} else {
				if err := storage.EnsureBucket(cmd.Context(), store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
					logg.Warn("Dead-letter bucket check failed", zap.Error(err))
				}
				recorder = recorder.WithArchive(store, cfg.Storage.Bucket)
			}
		}

		// 5. Task Pool
		pool := scheduler.NewPool(cfg.Scheduler, logg)
		pool.Start(context.Background())

		// 6. Synchronization Pipeline
		sender := lead.NewClient(cfg.Sync, lead.NewBearerToken(cfg.Sync.ApiToken))
		svc := lead.NewService(db, pool, sender, recorder, cfg.Sync, logg)

		// 7. Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		lead.NewHandler(svc).RegisterRoutes(app)

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		pool.Stop()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
