package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/store"
)

// Transactor opens units of work
type Transactor interface {
	Begin(ctx context.Context) (store.UnitOfWork, error)
}

// SyncStats tracks what a sync job did
type SyncStats struct {
	Total     int
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Failed    int
}

// Job is one scheduled synchronization task. All of its writes go through uow.
type Job struct {
	Name string
	Run  func(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error)
}

// JobResult records the outcome of one job run
type JobResult struct {
	Name     string
	Stats    *SyncStats
	Err      error
	Duration time.Duration
}

// CronRunner isolates each job in its own unit of work. A failing or panicking
// job has its writes rolled back and is recorded in its result; it never stops
// the jobs after it.
type CronRunner struct {
	db  Transactor
	log *logger.Logger
}

// NewCronRunner creates a new CronRunner
func NewCronRunner(db Transactor, log *logger.Logger) *CronRunner {
	return &CronRunner{db: db, log: log.With("component", "cron")}
}

// RunAll runs jobs sequentially
func (r *CronRunner) RunAll(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			results = append(results, JobResult{Name: job.Name, Err: ctx.Err()})
			continue
		}
		results = append(results, r.Run(ctx, job))
	}
	return results
}

// Run runs a single job, committing on success and rolling back otherwise
func (r *CronRunner) Run(ctx context.Context, job Job) (result JobResult) {
	result.Name = job.Name
	log := r.log.With("job", job.Name)
	start := time.Now()

	uow, err := r.db.Begin(ctx)
	if err != nil {
		log.Error("Could not start cron function", "error", err)
		result.Err = err
		return result
	}

	defer func() {
		result.Duration = time.Since(start)
		if p := recover(); p != nil {
			result.Err = fmt.Errorf("panic: %v", p)
		}
		if result.Err == nil {
			return
		}
		if rbErr := uow.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("Rollback failed", "error", rbErr)
		}
		log.Error("Exception thrown during cron function", "error", result.Err)
	}()

	log.Info("Running cron function")
	result.Stats, result.Err = job.Run(ctx, uow)
	if result.Err != nil {
		return result
	}

	if err := uow.Commit(); err != nil {
		result.Err = fmt.Errorf("failed to commit: %w", err)
		return result
	}
	log.Info("Cron function finished", "duration", time.Since(start).String())
	return result
}

// PrintSummary writes a summary block for a sync run
func PrintSummary(w io.Writer, results []JobResult) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "=== Sync Summary ===")
	failed := 0
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "FAILED: " + res.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%-22s %s (%s)\n", res.Name+":", status, res.Duration.Round(time.Millisecond))
		if s := res.Stats; s != nil {
			fmt.Fprintf(w, "  total %d, processed %d, created %d, updated %d, skipped %d, failed %d\n",
				s.Total, s.Processed, s.Created, s.Updated, s.Skipped, s.Failed)
		}
	}
	fmt.Fprintf(w, "Jobs failed:           %d/%d\n", failed, len(results))
}
