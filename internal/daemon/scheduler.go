package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/infra/logger"
)

// dailyResetJob is the job name of the midnight token grant.
const dailyResetJob = "garden-daily-reset"

// DailyResetter grants the daily water token when a new day has started.
type DailyResetter interface {
	CheckDailyReset(ctx context.Context) (domain.GardenState, error)
}

// Scheduler runs the daily garden reset while the daemon is up, so the
// free token appears without waiting for the next request.
type Scheduler struct {
	cron   gocron.Scheduler
	garden DailyResetter
	log    *logger.Logger
	ctx    context.Context
}

// NewScheduler registers the daily reset job at the given time of day,
// measured on clock in its local zone.
func NewScheduler(ctx context.Context, garden DailyResetter, at string, clock clockwork.Clock, log *logger.Logger) (*Scheduler, error) {
	offset, err := ParseClock(at)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "scheduler")

	cron, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(clock.Now().Location()),
		gocron.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{cron: cron, garden: garden, log: log, ctx: ctx}

	atTime := gocron.NewAtTime(
		uint(offset/time.Hour),
		uint(offset%time.Hour/time.Minute),
		uint(offset%time.Minute/time.Second),
	)
	_, err = cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(atTime)),
		gocron.NewTask(s.runDailyReset),
		gocron.WithName(dailyResetJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("register %s: %w", dailyResetJob, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Jobs()))
}

// NextReset returns when the daily reset job runs next.
func (s *Scheduler) NextReset() (time.Time, error) {
	for _, j := range s.cron.Jobs() {
		if j.Name() == dailyResetJob {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("job %s not registered", dailyResetJob)
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

func (s *Scheduler) runDailyReset() {
	g, err := s.garden.CheckDailyReset(s.ctx)
	if err != nil {
		s.log.Error("daily reset failed", "error", err)
		return
	}
	s.log.Info("daily reset checked", "tokens", g.WaterTokens, "pending_daily", g.PendingDaily)
}
