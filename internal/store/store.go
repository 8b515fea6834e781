// Package store keeps the active definition, the teacher mapping and pending
// notifications between runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
)

// ErrNotFound is returned when nothing has been saved yet.
var ErrNotFound = errors.New("store: not found")

// Store persists the artifacts the engine is rebuilt from. It also serves as
// the pending-notification center.
type Store interface {
	notify.Center

	LoadDefinition(ctx context.Context) ([]byte, error)
	SaveDefinition(ctx context.Context, data []byte) error

	LoadMapping(ctx context.Context) (map[string]string, error)
	SaveMapping(ctx context.Context, mapping map[string]string) error
	ClearMapping(ctx context.Context) error

	PendingRequests(ctx context.Context) ([]notify.Request, error)

	Close() error
}

// Store kinds accepted by Open.
const (
	KindFile      = "file"
	KindSQLite    = "sqlite"
	KindComposite = "composite"
)

// Open creates the store of the given kind. Composite uses SQLite as primary
// and the JSON file as fallback.
func Open(kind, filePath, sqlitePath string, logger *zap.Logger) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(filePath, logger), nil
	case KindSQLite:
		return OpenSQLite(sqlitePath, logger)
	case KindComposite:
		primary, err := OpenSQLite(sqlitePath, logger)
		if err != nil {
			return nil, err
		}
		return NewCompositeStore(primary, NewFileStore(filePath, logger), logger), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", kind)
	}
}
