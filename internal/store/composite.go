package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
)

// CompositeStore implements Store with fallback strategy
// Reads: primary first, fallback when primary fails or has nothing.
// Writes: both; an error only when neither succeeds.
type CompositeStore struct {
	primary  Store
	fallback Store
	logger   *zap.Logger
}

// NewCompositeStore creates a new CompositeStore
func NewCompositeStore(primary, fallback Store, logger *zap.Logger) *CompositeStore {
	return &CompositeStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func read[T any](cs *CompositeStore, what string, fn func(Store) (T, error)) (T, error) {
	v, err := fn(cs.primary)
	if err == nil {
		return v, nil
	}

	if !errors.Is(err, ErrNotFound) {
		cs.logger.Warn("Primary store failed, falling back",
			zap.String("read", what),
			zap.Error(err))
	}
	return fn(cs.fallback)
}

func (cs *CompositeStore) write(what string, fn func(Store) error) error {
	perr := fn(cs.primary)
	ferr := fn(cs.fallback)

	switch {
	case perr != nil && ferr != nil:
		return fmt.Errorf("failed to %s: %w", what, errors.Join(perr, ferr))
	case perr != nil:
		cs.logger.Warn("Primary store failed, written to fallback only",
			zap.String("write", what),
			zap.Error(perr))
	case ferr != nil:
		cs.logger.Warn("Fallback store failed",
			zap.String("write", what),
			zap.Error(ferr))
	}
	return nil
}

func (cs *CompositeStore) LoadDefinition(ctx context.Context) ([]byte, error) {
	return read(cs, "definition", func(s Store) ([]byte, error) { return s.LoadDefinition(ctx) })
}

func (cs *CompositeStore) SaveDefinition(ctx context.Context, data []byte) error {
	return cs.write("save definition", func(s Store) error { return s.SaveDefinition(ctx, data) })
}

func (cs *CompositeStore) LoadMapping(ctx context.Context) (map[string]string, error) {
	return read(cs, "mapping", func(s Store) (map[string]string, error) { return s.LoadMapping(ctx) })
}

func (cs *CompositeStore) SaveMapping(ctx context.Context, mapping map[string]string) error {
	return cs.write("save mapping", func(s Store) error { return s.SaveMapping(ctx, mapping) })
}

func (cs *CompositeStore) ClearMapping(ctx context.Context) error {
	return cs.write("clear mapping", func(s Store) error { return s.ClearMapping(ctx) })
}

func (cs *CompositeStore) PendingRequests(ctx context.Context) ([]notify.Request, error) {
	return read(cs, "pending requests", func(s Store) ([]notify.Request, error) { return s.PendingRequests(ctx) })
}

func (cs *CompositeStore) PendingIdentifiers(ctx context.Context) ([]string, error) {
	return read(cs, "pending identifiers", func(s Store) ([]string, error) { return s.PendingIdentifiers(ctx) })
}

func (cs *CompositeStore) Add(ctx context.Context, req notify.Request) error {
	return cs.write("add "+req.Identifier, func(s Store) error { return s.Add(ctx, req) })
}

func (cs *CompositeStore) Remove(ctx context.Context, ids []string) error {
	return cs.write("remove pending requests", func(s Store) error { return s.Remove(ctx, ids) })
}

func (cs *CompositeStore) Close() error {
	return errors.Join(cs.primary.Close(), cs.fallback.Close())
}
