package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultArchiveSchedule runs shortly after midnight on the first of the month
const DefaultArchiveSchedule = "5 0 1 * *"

// archivedKinds are stored for every owner on each run
var archivedKinds = []domain.ExportKind{domain.ExportKindTransactions, domain.ExportKindDocument}

// ArchiveJob archives the previous month's exports of every owner on a cron
// schedule
type ArchiveJob struct {
	archive  *ArchiveService
	owners   domain.OwnerRepository
	logger   zerolog.Logger
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	mu       sync.Mutex
	running  bool
}

// ArchiveRunResult summarizes one run of the job
type ArchiveRunResult struct {
	Owners   int
	Archived int
	Failed   int
}

// NewArchiveJob creates the job. The schedule uses the standard five-field
// cron syntax or a descriptor such as "@monthly".
func NewArchiveJob(archive *ArchiveService, owners domain.OwnerRepository, logger zerolog.Logger, schedule string) (*ArchiveJob, error) {
	if schedule == "" {
		schedule = DefaultArchiveSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, err
	}

	return &ArchiveJob{
		archive:  archive,
		owners:   owners,
		logger:   logger.With().Str("component", "archive_job").Logger(),
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		now:      time.Now,
	}, nil
}

// SetClock replaces the clock used to pick the archived month
func (j *ArchiveJob) SetClock(now func() time.Time) {
	j.now = now
}

// Start registers the job with the scheduler and starts it
func (j *ArchiveJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}

	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(ctx) }); err != nil {
		return err
	}
	j.cron.Start()
	j.running = true

	j.logger.Info().Str("schedule", j.schedule).Msg("Starting archive job")
	return nil
}

// Stop stops the scheduler and waits for a running archive to finish
func (j *ArchiveJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	<-j.cron.Stop().Done()
	j.logger.Info().Msg("Archive job stopped")
}

// IsRunning returns whether the scheduler is active
func (j *ArchiveJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// RunOnce archives the previous calendar month for every owner. Failures are
// logged per owner and do not stop the run.
func (j *ArchiveJob) RunOnce(ctx context.Context) ArchiveRunResult {
	var result ArchiveRunResult
	if !j.archive.Enabled() {
		j.logger.Debug().Msg("Archive storage not configured, skipping run")
		return result
	}

	now := j.now().UTC()
	year, month := util.PreviousMonth(now.Year(), int(now.Month()))
	start, end := util.MonthRange(year, month)
	filter := domain.ReportFilter{StartDate: &start, EndDate: &end}

	ownerIDs, err := j.owners.GetAllIDs(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("Failed to list owners for archive")
		return result
	}

	startTime := time.Now()
	for _, ownerID := range ownerIDs {
		if ctx.Err() != nil {
			j.logger.Info().Msg("Context cancelled, stopping archive run")
			break
		}
		result.Owners++

		for _, kind := range archivedKinds {
			if _, err := j.archive.Archive(ctx, ownerID, kind, filter); err != nil {
				j.logger.Error().
					Err(err).
					Int32("owner_id", ownerID).
					Str("kind", string(kind)).
					Msg("Failed to archive export")
				result.Failed++
				continue
			}
			result.Archived++
		}
	}

	j.logger.Info().
		Str("period", util.FormatDate(start)+".."+util.FormatDate(end)).
		Int("owners", result.Owners).
		Int("archived", result.Archived).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed archive run")
	return result
}
