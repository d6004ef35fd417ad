package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/staticdata"
	"github.com/jjenkins/billtracker/internal/store"
	"github.com/spf13/cobra"
)

var syncJob string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize council members and bills from the council API",
	Long: `Sync runs the scheduled synchronization jobs one after another. A job that
fails is rolled back and reported; the remaining jobs still run.

Jobs, in order:
  council-members      current members and their terms
  council-person-data  email, website and office phone numbers
  council-static-data  cleaned names, parties, boroughs and twitter handles
  bill-updates         upstream changes to tracked city bills
  sponsorships         sponsor lists of tracked city bills

Examples:
  # Run every job
  ./billtracker sync

  # Run a single job
  ./billtracker sync --job sponsorships`,
	Run: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVarP(&syncJob, "job", "j", "", "Run only the named job")
}

func runSync(cmd *cobra.Command, args []string) {
	cfg, log, err := setup()
	if err != nil {
		cmd.PrintErrln(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	static, err := staticdata.Load(cfg.StaticDataPath)
	if err != nil {
		log.Fatal("Failed to load static data", "error", err)
	}

	log.Info("Connecting to database...")
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	council := service.NewCouncilClient(cfg.CouncilAPIBaseURL, cfg.CouncilAPIToken)
	councilSync := service.NewCouncilSync(council, static, log.With("component", "sync"))
	runner := service.NewCronRunner(db, log)

	jobs := councilSync.Jobs()
	if syncJob != "" {
		job, err := councilSync.Job(syncJob)
		if err != nil {
			log.Fatal("Unknown job", "job", syncJob, "error", err)
		}
		jobs = []service.Job{job}
	}

	results := runner.RunAll(ctx, jobs)
	service.PrintSummary(os.Stdout, results)

	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}
