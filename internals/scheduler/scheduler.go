// Package scheduler runs the periodic season jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Job interface {
	Run(ctx context.Context) error
	Name() string
}

type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
}

// New builds a scheduler whose specs carry a seconds field. Each run gets its
// own context bounded by timeout.
func New(log zerolog.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		timeout: timeout,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on a cron spec such as "0 0 0 * * MON" or "@every 1h".
func (s *Scheduler) AddJob(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(job); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		}
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", spec).Str("job", job.Name()).Msg("job registered")
	return nil
}

func (s *Scheduler) RunNow(job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Debug().Str("job", job.Name()).Msg("running job")
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		return err
	}
	s.log.Debug().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("job completed")
	return nil
}

// Settler settles matchup weeks that are due.
type Settler interface {
	SettleDue(ctx context.Context) (int, error)
}

// SettleJob settles the earliest open week of every running season.
type SettleJob struct {
	Settler Settler
	Log     zerolog.Logger
}

func (j SettleJob) Name() string { return "settle_weeks" }

func (j SettleJob) Run(ctx context.Context) error {
	n, err := j.Settler.SettleDue(ctx)
	j.Log.Info().Int("weeks_settled", n).Msg("weekly settlement ran")
	return err
}
