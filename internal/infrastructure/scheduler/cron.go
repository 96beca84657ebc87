package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"proposaland/internal/logging"
	"proposaland/internal/ports"
)

// DailyScheduler fires a job once a day at a wall-clock time in a timezone.
type DailyScheduler struct {
	spec     string
	loc      *time.Location
	schedule cron.Schedule
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses runAt as "HH:MM". A nil location means UTC.
func NewDailyScheduler(runAt string, loc *time.Location, logger *slog.Logger) (*DailyScheduler, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(runAt, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("parse run_at %q: %w", runAt, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("parse run_at %q: out of range", runAt)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Discard()
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	schedule, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %s", loc.String(), spec))
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &DailyScheduler{spec: spec, loc: loc, schedule: schedule, logger: logger}, nil
}

// NextRun returns the first trigger strictly after now.
func (d *DailyScheduler) NextRun(now time.Time) time.Time {
	return d.schedule.Next(now).In(d.loc)
}

// Start registers the job with a cron runner. Calling Start twice is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithLocation(d.loc),
		cron.WithLogger(cronLogger{logger: d.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: d.logger})),
	)
	if _, err := c.AddFunc(d.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(d.loc))
	}); err != nil {
		return fmt.Errorf("register job: %w", err)
	}
	c.Start()
	d.cron = c

	return nil
}

// Stop halts the runner and waits for a running job to return.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's logr-style calls into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
