package notify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
)

// Center holds notifications waiting to be delivered.
type Center interface {
	PendingIdentifiers(ctx context.Context) ([]string, error)
	Add(ctx context.Context, req Request) error
	Remove(ctx context.Context, ids []string) error
}

// RenewResult summarizes one renewal.
type RenewResult struct {
	AlreadyPending int
	Added          []string
	Failed         int
}

// Renewer keeps the center filled with the earliest notifications of every option.
type Renewer struct {
	options []Option
	byID    map[byte]Option
	center  Center
	limit   int
	logger  *zap.Logger
}

// NewRenewer creates a new Renewer
func NewRenewer(options []Option, center Center, limit int, logger *zap.Logger) *Renewer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	byID := make(map[byte]Option, len(options))
	for _, opt := range options {
		byID[opt.ID()] = opt
	}
	return &Renewer{
		options: options,
		byID:    byID,
		center:  center,
		limit:   limit,
		logger:  logger,
	}
}

// Ideal returns the identifiers that should be pending as of now.
func (r *Renewer) Ideal(now time.Time) []string {
	sources := make([]iter.Seq2[string, time.Time], len(r.options))
	for i, opt := range r.options {
		sources[i] = opt.Identifiers(now)
	}
	return NewScheduler(sources, r.limit).Pending()
}

// Renew adds every ideal identifier the center does not already hold. Nothing
// is added while the center is at the limit. Failures of single requests do
// not stop the others; they are joined into the returned error.
func (r *Renewer) Renew(ctx context.Context, now time.Time) (RenewResult, error) {
	pending, err := r.center.PendingIdentifiers(ctx)
	if err != nil {
		return RenewResult{}, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	result := RenewResult{AlreadyPending: len(pending)}

	if len(pending) >= r.limit {
		r.logger.Debug("Notification limit reached, nothing to renew",
			zap.Int("pending", len(pending)),
			zap.Int("limit", r.limit))
		return result, nil
	}

	have := make(map[string]bool, len(pending))
	for _, id := range pending {
		have[id] = true
	}

	var errs []error
	for _, id := range r.Ideal(now) {
		if have[id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := r.add(ctx, id); err != nil {
			result.Failed++
			errs = append(errs, err)
			r.logger.Warn("Failed to schedule notification",
				zap.String("id", id),
				zap.Error(err))
			continue
		}
		result.Added = append(result.Added, id)
	}

	r.logger.Info("Notifications renewed",
		zap.Int("already_pending", result.AlreadyPending),
		zap.Int("added", len(result.Added)),
		zap.Int("failed", result.Failed))

	return result, errors.Join(errs...)
}

func (r *Renewer) add(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrUnknownOption)
	}
	opt, ok := r.byID[id[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOption, id)
	}
	req, err := opt.Request(id)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", id, err)
	}
	if err := r.center.Add(ctx, req); err != nil {
		return fmt.Errorf("failed to add %s: %w", id, err)
	}
	return nil
}

// Withdraw removes every pending notification opt would produce from now on.
func (r *Renewer) Withdraw(ctx context.Context, opt Option, now time.Time) error {
	var ids []string
	for id := range opt.Identifiers(now) {
		ids = append(ids, id)
	}
	if err := r.center.Remove(ctx, ids); err != nil {
		return fmt.Errorf("failed to withdraw %s notifications: %w", opt.Name(), err)
	}
	r.logger.Info("Notifications withdrawn",
		zap.String("option", opt.Name()),
		zap.Int("count", len(ids)))
	return nil
}
