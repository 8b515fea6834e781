// Package provider holds the active calendar and schedule and persists
// replacements through a store.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/definition"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/internal/store"
)

// ErrNoCalendar is returned before any calendar has been stored.
var ErrNoCalendar = errors.New("no calendar available")

// Resources is one consistent snapshot. Schedule may be nil.
type Resources struct {
	Calendar *calendar.Calendar
	Schedule *schedule.Schedule
}

// Provider swaps Resources atomically. Readers never see a schedule paired
// with a calendar it does not apply to.
type Provider struct {
	store   store.Store
	loc     *time.Location
	logger  *zap.Logger
	current atomic.Pointer[Resources]
	// mu serializes writers.
	mu sync.Mutex
}

// New creates a Provider. Call Load to restore persisted resources.
func New(st store.Store, loc *time.Location, logger *zap.Logger) *Provider {
	return &Provider{
		store:  st,
		loc:    loc,
		logger: logger,
	}
}

// Load rebuilds the resources from the store. A missing definition leaves the
// provider empty and returns ErrNoCalendar. A stored mapping that no longer
// applies is ignored.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.store.LoadDefinition(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoCalendar
	}
	if err != nil {
		return fmt.Errorf("failed to load definition: %w", err)
	}

	cal, err := definition.Read(data, p.loc)
	if err != nil {
		return fmt.Errorf("failed to parse stored definition: %w", err)
	}
	res := &Resources{Calendar: cal}

	mapping, err := p.store.LoadMapping(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load schedule: %w", err)
	default:
		sched, err := schedule.New(mapping, cal)
		if err != nil {
			p.logger.Warn("Stored schedule does not fit the calendar, ignoring it",
				zap.String("calendar", cal.Name()),
				zap.Error(err))
		} else {
			res.Schedule = sched
		}
	}

	p.current.Store(res)
	p.logger.Info("Resources loaded",
		zap.String("calendar", cal.Name()),
		zap.Float64("version", cal.Version()),
		zap.Bool("schedule", res.Schedule != nil))
	return nil
}

// Current returns the active snapshot.
func (p *Provider) Current() (Resources, error) {
	res := p.current.Load()
	if res == nil {
		return Resources{}, ErrNoCalendar
	}
	return *res, nil
}

// Calendar returns the active calendar.
func (p *Provider) Calendar() (*calendar.Calendar, error) {
	res, err := p.Current()
	if err != nil {
		return nil, err
	}
	return res.Calendar, nil
}

// StoreCalendar parses data, persists it and makes it active. The current
// schedule is carried over when it covers the new calendar and dropped
// otherwise.
func (p *Provider) StoreCalendar(ctx context.Context, data []byte) (*calendar.Calendar, error) {
	cal, err := definition.Read(data, p.loc)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.SaveDefinition(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save definition: %w", err)
	}

	res := &Resources{Calendar: cal}
	if old := p.current.Load(); old != nil && old.Schedule != nil {
		if old.Schedule.Applies(cal) {
			sched, err := schedule.New(old.Schedule.Mapping(), cal)
			if err != nil {
				return nil, err
			}
			res.Schedule = sched
		} else {
			if err := p.store.ClearMapping(ctx); err != nil {
				return nil, fmt.Errorf("failed to clear schedule: %w", err)
			}
			p.logger.Info("Schedule dropped, it does not cover the new calendar",
				zap.String("calendar", cal.Name()))
		}
	}

	p.current.Store(res)
	p.logger.Info("Calendar stored",
		zap.String("calendar", cal.Name()),
		zap.Float64("version", cal.Version()))
	return cal, nil
}

// StoreSchedule validates mapping against the active calendar, persists it and
// makes it active.
func (p *Provider) StoreSchedule(ctx context.Context, mapping map[string]string) (*schedule.Schedule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.current.Load()
	if old == nil {
		return nil, ErrNoCalendar
	}
	sched, err := schedule.New(mapping, old.Calendar)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveMapping(ctx, sched.Mapping()); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	p.current.Store(&Resources{Calendar: old.Calendar, Schedule: sched})
	p.logger.Info("Schedule stored", zap.Int("entries", len(sched.Mapping())))
	return sched, nil
}

// ClearSchedule forgets the schedule.
func (p *Provider) ClearSchedule(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.ClearMapping(ctx); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	if old := p.current.Load(); old != nil {
		p.current.Store(&Resources{Calendar: old.Calendar})
	}
	p.logger.Info("Schedule cleared")
	return nil
}
