package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjenkins/billtracker/internal/handlers"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/sheets"
	"github.com/jjenkins/billtracker/internal/store"
	"github.com/jjenkins/billtracker/internal/twitter"
	"github.com/spf13/cobra"
)

var (
	port        string
	staticDir   string
	applySchema bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bill tracker web server",
	Long:  `Start the web server that serves the JSON API and the app shell.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer log.Sync()

		// Flag wins over PORT only when explicitly set
		if !cmd.Flags().Changed("port") {
			port = cfg.Port
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()

		if applySchema {
			if err := store.ApplySchema(ctx, db); err != nil {
				log.Fatal("Failed to apply schema", "error", err)
			}
			log.Info("Schema applied")
		}

		sessions, err := handlers.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
		if err != nil {
			log.Fatal("Failed to configure sessions", "error", err)
		}

		docs, err := service.NewGoogleDocs(ctx, service.GoogleClientOptions(cfg.GoogleCredentials)...)
		if err != nil {
			log.Fatal("Failed to create Google clients", "error", err)
		}

		council := service.NewCouncilClient(cfg.CouncilAPIBaseURL, cfg.CouncilAPIToken)
		state := service.NewStateClient(cfg.StateAPIBaseURL, cfg.StateAPIKey)

		powerHours := service.NewPowerHourService(
			docs,
			docs,
			sheets.NewBuilder(twitter.Links{}, log.With("component", "sheets")),
			sheets.NewImporter(log.With("component", "sheets")),
			log.With("component", "power_hours"),
		)

		app := handlers.NewApp(&handlers.Deps{
			DB:         db,
			Council:    council,
			State:      state,
			Sponsors:   service.NewSponsorshipSyncer(council, log.With("component", "sponsorships")),
			PowerHours: powerHours,
			Sessions:   sessions,
			Log:        log,
		}, handlers.Options{
			DisableStrictTransportSecurity: cfg.DisableStrictTransportSecurity,
			StaticDir:                      staticDir,
			AccessLog:                      true,
		})

		go func() {
			<-ctx.Done()
			log.Info("Received interrupt signal, shutting down...")
			_ = app.Shutdown()
		}()

		log.Info("Starting server", "port", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("Failed to start server", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
	serveCmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory of built frontend assets served under /static")
	serveCmd.Flags().BoolVar(&applySchema, "apply-schema", false, "Create missing tables before serving")
}
