package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
	"github.com/username/prematch/internal/provider"
	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// ErrAlreadyRunning is returned when a renewal is requested while another one
// is still in progress.
var ErrAlreadyRunning = errors.New("renewal already in progress")

// Center is a notification center that can list its pending requests, so
// requests whose trigger has passed can be pruned.
type Center interface {
	notify.Center
	PendingRequests(ctx context.Context) ([]notify.Request, error)
}

// Settings configures the renewal job.
type Settings struct {
	BriefingTime string
	Limit        int
	RenewCron    string
	Location     *time.Location
}

// Daemon keeps the notification center filled on a cron schedule.
type Daemon struct {
	provider *provider.Provider
	center   Center
	settings Settings
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time

	mu         sync.Mutex // Protect against concurrent runs
	running    bool
	lastRun    time.Time
	lastResult notify.RenewResult
	lastErr    error
}

// New creates a new daemon instance
func New(p *provider.Provider, center Center, settings Settings, logger *zap.Logger) *Daemon {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Daemon{
		provider: p,
		center:   center,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run renews once, then on every cron tick until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New(
		cron.WithLocation(d.settings.Location),
		cron.WithLogger(cronLogger{d.logger.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{d.logger.Sugar()})),
	)
	if _, err := c.AddFunc(d.settings.RenewCron, func() { d.renewJob(ctx) }); err != nil {
		return fmt.Errorf("invalid renew schedule %q: %w", d.settings.RenewCron, err)
	}

	d.mu.Lock()
	d.cron = c
	d.mu.Unlock()

	d.logger.Info("Daemon started",
		zap.String("renew_cron", d.settings.RenewCron),
		zap.String("timezone", d.settings.Location.String()),
		zap.Int("limit", d.settings.Limit))

	d.renewJob(ctx)

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		d.logger.Info("Next renewal scheduled", zap.Time("next_run", entries[0].Next))
	}

	<-ctx.Done()
	d.logger.Info("Daemon stopping", zap.NamedError("reason", context.Cause(ctx)))

	// wait for a running job to finish
	<-c.Stop().Done()

	d.mu.Lock()
	d.cron = nil
	d.mu.Unlock()
	d.logger.Info("Daemon stopped")
	return nil
}

func (d *Daemon) renewJob(ctx context.Context) {
	_, err := d.RenewNow(ctx)
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrYearEnded), errors.Is(err, provider.ErrNoCalendar):
		d.logger.Warn("Renewal skipped", zap.Error(err))
	case errors.Is(err, ErrAlreadyRunning):
		d.logger.Debug("Renewal skipped", zap.Error(err))
	default:
		d.logger.Error("Renewal failed", zap.Error(err))
	}
}

// RenewNow prunes expired requests and fills the center up to the limit.
func (d *Daemon) RenewNow(ctx context.Context) (notify.RenewResult, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return notify.RenewResult{}, ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	runID := uuid.NewString()
	logger := d.logger.With(zap.String("run_id", runID))
	now := d.now().In(d.settings.Location)

	result, err := d.renew(ctx, now, logger)

	d.mu.Lock()
	d.running = false
	d.lastRun = now
	d.lastResult = result
	d.lastErr = err
	d.mu.Unlock()

	return result, err
}

func (d *Daemon) renew(ctx context.Context, now time.Time, logger *zap.Logger) (notify.RenewResult, error) {
	res, err := d.provider.Current()
	if err != nil {
		return notify.RenewResult{}, err
	}

	span, semester, err := notify.SchedulingRange(now, res.Calendar)
	if err != nil {
		return notify.RenewResult{}, err
	}
	logger.Debug("Scheduling range resolved",
		zap.String("calendar", res.Calendar.Name()),
		zap.Int("semester", semester+1),
		zap.String("until", dateutil.FormatDate(span.End)))

	if err := d.pruneExpired(ctx, now, logger); err != nil {
		return notify.RenewResult{}, err
	}

	// Today's briefing is only wanted while its time is still ahead.
	from := now
	today := res.Calendar.Date(now)
	if at, err := timetable.ParseTime(d.settings.BriefingTime); err == nil && !at.On(today).After(now) {
		from = dateutil.NextDay(today)
	}

	briefing := notify.NewDayBriefing(res.Calendar, res.Schedule, d.settings.BriefingTime)
	renewer := notify.NewRenewer([]notify.Option{briefing}, d.center, d.settings.Limit, logger)
	return renewer.Renew(ctx, from)
}

// pruneExpired removes requests whose trigger is not after now.
func (d *Daemon) pruneExpired(ctx context.Context, now time.Time, logger *zap.Logger) error {
	reqs, err := d.center.PendingRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}

	var expired []string
	for _, req := range reqs {
		if !req.Trigger.After(now) {
			expired = append(expired, req.Identifier)
		}
	}
	if len(expired) == 0 {
		return nil
	}

	if err := d.center.Remove(ctx, expired); err != nil {
		return fmt.Errorf("failed to prune expired requests: %w", err)
	}
	logger.Info("Expired notifications pruned", zap.Int("count", len(expired)))
	return nil
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"running":    d.cron != nil,
		"renewing":   d.running,
		"renew_cron": d.settings.RenewCron,
		"timezone":   d.settings.Location.String(),
	}
	if d.cron != nil {
		if entries := d.cron.Entries(); len(entries) > 0 {
			status["next_run"] = entries[0].Next.Format(dateutil.DateTimeLayout)
		}
	}
	if !d.lastRun.IsZero() {
		last := map[string]interface{}{
			"time":            d.lastRun.Format(dateutil.DateTimeLayout),
			"already_pending": d.lastResult.AlreadyPending,
			"added":           len(d.lastResult.Added),
			"failed":          d.lastResult.Failed,
		}
		if d.lastErr != nil {
			last["error"] = d.lastErr.Error()
		}
		status["last_run"] = last
	}
	return status
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
